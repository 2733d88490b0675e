package discussion

import (
	"context"

	"github.com/revboard-dev/revboard/pkg/tool"
)

// ToolName is the registered name of the discussion tool.
const ToolName = "review_discussion"

// NewTool exposes the engine as a single discriminated-action tool. The
// handler never returns an error: every failure is encoded in the response
// body so callers always get the uniform result shape.
func NewTool(engine *Engine) tool.Tool {
	return tool.Tool{
		Name:        ToolName,
		Description: "Walk through code-review findings with simulated agent reactions and record accept/defer/reject decisions",
		Schema: tool.Schema{
			"action": {
				Type:     "string",
				Required: true,
				Enum:     []any{"start", "continue", "decide", "skip", "end"},
			},
			"sessionId":    {Type: "string", Description: "Session id returned by start"},
			"phase1Result": {Type: "string", Description: "Phase 1 review output as a JSON string"},
			"phase2Result": {Type: "string", Description: "Phase 2 multi-agent analysis as a JSON string"},
			"findingId":    {Type: "string", Description: "Finding id of the agenda item to decide or skip"},
			"decision": {
				Type: "string",
				Enum: []any{"accept", "defer", "reject"},
			},
			"reason":     {Type: "string", Description: "Why the decision was made"},
			"deferredTo": {Type: "string", Description: "Story id a deferred finding moves to"},
		},
		Handler: func(ctx context.Context, args tool.Args) (any, error) {
			req := Request{
				Action:       Action(args.String("action")),
				SessionID:    args.String("sessionId"),
				Phase1Result: args.String("phase1Result"),
				Phase2Result: args.String("phase2Result"),
				FindingID:    args.String("findingId"),
				Decision:     args.String("decision"),
				Reason:       args.String("reason"),
				DeferredTo:   args.String("deferredTo"),
			}
			return engine.Dispatch(ctx, req), nil
		},
	}
}
