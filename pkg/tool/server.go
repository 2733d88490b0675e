package tool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Server hosts a set of registered tools.
type Server struct {
	name    string
	tools   map[string]Tool
	mu      sync.RWMutex
	limiter *rate.Limiter
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRateLimit throttles CallTool to requestsPerSecond with the given burst.
func WithRateLimit(requestsPerSecond float64, burst int) ServerOption {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewServer creates a tool server.
func NewServer(name string, opts ...ServerOption) *Server {
	s := &Server{
		name:  name,
		tools: make(map[string]Tool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterTool adds a tool to the server. Registering the same name twice is
// an error.
func (s *Server) RegisterTool(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", t.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	s.tools[t.Name] = t
	return nil
}

// ListTools returns the registered tool definitions.
func (s *Server) ListTools() []Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tools := make([]Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// CallTool validates args against the tool schema and invokes its handler.
func (s *Server) CallTool(ctx context.Context, name string, args Args) (any, error) {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if err := t.Schema.ValidateArgs(args); err != nil {
		return nil, err
	}
	return t.Handler(ctx, args)
}
