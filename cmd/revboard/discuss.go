package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/revboard-dev/revboard/internal/discussion"
	"github.com/revboard-dev/revboard/internal/persona"
)

func newDiscussCmd() *cobra.Command {
	var phase1File, phase2File, personasDir string

	cmd := &cobra.Command{
		Use:   "discuss",
		Short: "Walk review findings interactively in the terminal",
		Long:  "discuss runs a discussion session in-process: it reads the review phase outputs from files and prompts for a decision on each agenda item.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiscuss(cmd.Context(), phase1File, phase2File, personasDir)
		},
	}
	cmd.Flags().StringVar(&phase1File, "phase1", "", "Phase 1 review output (JSON file)")
	cmd.Flags().StringVar(&phase2File, "phase2", "", "Phase 2 analysis output (JSON file, optional)")
	cmd.Flags().StringVar(&personasDir, "personas", os.Getenv("REVBOARD_PERSONAS_DIR"), "Persona overrides directory")
	_ = cmd.MarkFlagRequired("phase1")
	return cmd
}

func runDiscuss(ctx context.Context, phase1File, phase2File, personasDir string) error {
	phase1, err := os.ReadFile(phase1File)
	if err != nil {
		return fmt.Errorf("read phase1: %w", err)
	}
	var phase2 []byte
	if phase2File != "" {
		if phase2, err = os.ReadFile(phase2File); err != nil {
			return fmt.Errorf("read phase2: %w", err)
		}
	}

	roster, err := persona.Load(personasDir)
	if err != nil {
		return fmt.Errorf("load personas: %w", err)
	}

	store := discussion.NewStore(discussion.DefaultCapacity, discussion.DefaultIdleTimeout)
	engine := discussion.NewEngine(store, roster)

	resp := engine.Dispatch(ctx, discussion.Request{
		Action:       discussion.ActionStart,
		Phase1Result: string(phase1),
		Phase2Result: string(phase2),
	})
	if !resp.Success {
		return fmt.Errorf("%s (%s)", resp.Error, resp.Suggestion)
	}
	sessionID := resp.SessionID

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for resp.HasMoreItems {
		printItem(resp)

		input, err := line.Prompt("decision (accept/defer <story>/reject/skip/end) > ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, liner.ErrNotTerminalOutput) {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		line.AppendHistory(input)

		req, ok := parseDecision(input, sessionID, resp.CurrentItem.FindingID)
		if !ok {
			fmt.Println("unrecognized input, try: accept, defer story-3, reject, skip, end")
			continue
		}
		if req.Action == discussion.ActionEnd {
			break
		}

		resp = engine.Dispatch(ctx, req)
		if !resp.Success {
			fmt.Printf("error: %s\n", resp.Error)
			resp = engine.Dispatch(ctx, discussion.Request{Action: discussion.ActionContinue, SessionID: sessionID})
		}
	}

	final := engine.Dispatch(ctx, discussion.Request{Action: discussion.ActionEnd, SessionID: sessionID})
	if final.Success && final.Summary != nil {
		printSummary(final.Summary)
	}
	return nil
}

func printItem(resp *discussion.Response) {
	item := resp.CurrentItem
	fmt.Printf("\n=== %s [%s, %s] ===\n", item.Topic, item.Type, item.Severity)
	for _, r := range resp.CurrentResponses {
		fmt.Printf("%s %s: %s\n", r.Icon, r.Persona, r.Text)
	}
}

func printSummary(s *discussion.Summary) {
	fmt.Printf("\ndiscussed %d items: %d accepted, %d deferred, %d rejected, %d pending\n",
		s.TotalDiscussed, s.Decisions.Accepted, s.Decisions.Deferred,
		s.Decisions.Rejected, s.Decisions.Pending)
	for _, update := range s.StoryUpdatesNeeded {
		fmt.Printf("update %s: %s\n", update.StoryID, strings.Join(update.Additions, "; "))
	}
}

// parseDecision maps one prompt line to a request against the current item.
func parseDecision(input, sessionID, findingID string) (discussion.Request, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return discussion.Request{}, false
	}

	req := discussion.Request{SessionID: sessionID, FindingID: findingID}
	switch fields[0] {
	case "accept", "reject":
		req.Action = discussion.ActionDecide
		req.Decision = fields[0]
	case "defer":
		req.Action = discussion.ActionDecide
		req.Decision = "defer"
		if len(fields) > 1 {
			req.DeferredTo = fields[1]
		}
	case "skip":
		req.Action = discussion.ActionSkip
	case "end", "quit":
		req.Action = discussion.ActionEnd
		req.FindingID = ""
	default:
		return discussion.Request{}, false
	}
	return req, true
}
