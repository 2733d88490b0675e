package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/revboard-dev/revboard/internal/archive"
	"github.com/revboard-dev/revboard/internal/discussion"
	"github.com/revboard-dev/revboard/internal/persona"
	"github.com/revboard-dev/revboard/pkg/config"
	"github.com/revboard-dev/revboard/pkg/observability"
	"github.com/revboard-dev/revboard/pkg/tool"
)

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the discussion tool server with metrics and archival",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", os.Getenv("REVBOARD_CONFIG"), "Configuration file (YAML)")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Printf("starting revboard v%s", Version)

	observability.InitMetrics()
	tracer, err := observability.InitTracing(observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		PrettyPrint: cfg.TracingPretty,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	roster, err := persona.Load(cfg.PersonasDir)
	if err != nil {
		return fmt.Errorf("load personas: %w", err)
	}

	recorder, err := newRecorder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	defer recorder.Close()

	store := discussion.NewStore(cfg.Store.Capacity, cfg.Store.IdleTimeout.Std())
	engine := discussion.NewEngine(store, roster,
		discussion.WithRecorder(recorder),
		discussion.WithTracer(tracer),
	)

	var toolOpts []tool.ServerOption
	if cfg.RateLimit.RPS > 0 {
		toolOpts = append(toolOpts, tool.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	server := tool.NewServer("revboard", toolOpts...)
	if err := server.RegisterTool(discussion.NewTool(engine)); err != nil {
		return fmt.Errorf("register tool: %w", err)
	}

	obsServer := observability.NewServer(cfg.MetricsPort)
	errChan := make(chan error, 1)
	go func() {
		log.Printf("metrics server listening on :%d", cfg.MetricsPort)
		if err := obsServer.Start(); err != nil {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	// Expired sessions are normally collected lazily on access; the sweep
	// keeps the gauge honest on idle deployments.
	if cfg.SweepSchedule != "" {
		sweeper := cron.New()
		if _, err := sweeper.AddFunc(cfg.SweepSchedule, store.Cleanup); err != nil {
			return fmt.Errorf("invalid sweep_schedule: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
		log.Printf("session sweep scheduled: %s", cfg.SweepSchedule)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Printf("error: %v", err)
	case <-quit:
		log.Println("shutting down...")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
	if err := observability.ShutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}

	log.Println("stopped")
	return nil
}

func newRecorder(ctx context.Context, cfg *config.Config) (archive.Recorder, error) {
	if cfg.Redis.Addr == "" {
		log.Println("no redis configured, archiving decisions in memory")
		return archive.NewMemoryRecorder(), nil
	}
	return archive.NewRedisRecorder(ctx, archive.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
