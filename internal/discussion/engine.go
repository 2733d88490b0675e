package discussion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/revboard-dev/revboard/internal/agenda"
	"github.com/revboard-dev/revboard/internal/archive"
	"github.com/revboard-dev/revboard/internal/finding"
	"github.com/revboard-dev/revboard/internal/persona"
	"github.com/revboard-dev/revboard/internal/synthesis"
	"github.com/revboard-dev/revboard/pkg/observability"
)

// Action discriminates the discussion protocol operations.
type Action string

const (
	ActionStart    Action = "start"
	ActionContinue Action = "continue"
	ActionDecide   Action = "decide"
	ActionSkip     Action = "skip"
	ActionEnd      Action = "end"
)

// ValidationError reports a missing or malformed argument. It is always
// recoverable and never propagates past the dispatch boundary.
type ValidationError struct {
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string { return e.Message }

// Request carries one tool invocation. Phase1Result and Phase2Result are
// JSON-encoded strings, not structured objects.
type Request struct {
	Action       Action `json:"action"`
	SessionID    string `json:"sessionId,omitempty"`
	Phase1Result string `json:"phase1Result,omitempty"`
	Phase2Result string `json:"phase2Result,omitempty"`
	FindingID    string `json:"findingId,omitempty"`
	Decision     string `json:"decision,omitempty"`
	Reason       string `json:"reason,omitempty"`
	DeferredTo   string `json:"deferredTo,omitempty"`
}

// Response is the uniform result shape for every action.
type Response struct {
	Success          bool               `json:"success"`
	SessionID        string             `json:"sessionId,omitempty"`
	State            State              `json:"state,omitempty"`
	CurrentItem      *agenda.Item       `json:"currentItem,omitempty"`
	CurrentResponses []persona.Response `json:"currentResponses,omitempty"`
	HasMoreItems     bool               `json:"hasMoreItems"`
	Summary          *Summary           `json:"summary,omitempty"`
	Error            string             `json:"error,omitempty"`
	Suggestion       string             `json:"suggestion,omitempty"`
}

// Engine owns the session store and dispatches the discussion actions.
type Engine struct {
	store    *Store
	roster   persona.Roster
	recorder archive.Recorder
	tracer   trace.Tracer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRecorder wires a decision archive for ended sessions.
func WithRecorder(r archive.Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithTracer overrides the default tracer.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine creates an engine over an explicitly constructed store. There is
// no process-wide session registry; every engine owns its store.
func NewEngine(store *Store, roster persona.Roster, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		roster: roster,
		tracer: otel.GetTracerProvider().Tracer("revboard/discussion"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch runs one action to completion. Every failure, including a panic
// in a handler, is converted to a {success:false} response; nothing
// propagates to the caller.
func (e *Engine) Dispatch(ctx context.Context, req Request) (resp *Response) {
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "discussion."+string(req.Action),
		trace.WithAttributes(attribute.String("session.id", req.SessionID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[revboard] panic in %s handler: %v", req.Action, r)
			resp = failure(fmt.Errorf("internal error: %v", r))
		}
		status := "ok"
		if resp != nil && !resp.Success {
			status = "error"
		}
		observability.RecordToolAction(string(req.Action), status, time.Since(started))
	}()

	var err error
	switch req.Action {
	case ActionStart:
		resp, err = e.start(ctx, req)
	case ActionContinue:
		resp, err = e.continueSession(req)
	case ActionDecide:
		resp, err = e.decide(req)
	case ActionSkip:
		resp, err = e.skip(req)
	case ActionEnd:
		resp, err = e.end(ctx, req)
	default:
		err = &ValidationError{
			Message:    fmt.Sprintf("unknown action %q", req.Action),
			Suggestion: "use one of: start, continue, decide, skip, end",
		}
	}
	if err != nil {
		return failure(err)
	}
	return resp
}

// start creates a session from the phase artifacts and voices the first
// agenda item.
func (e *Engine) start(_ context.Context, req Request) (*Response, error) {
	if req.Phase1Result == "" {
		return nil, &ValidationError{
			Message:    "phase1Result is required for start",
			Suggestion: "pass the phase 1 review output as a JSON string",
		}
	}
	p1, err := parsePhase1(req.Phase1Result)
	if err != nil {
		return nil, &ValidationError{
			Message:    fmt.Sprintf("phase1Result is not valid JSON: %v", err),
			Suggestion: "re-run the review phase and pass its output unmodified",
		}
	}

	var syn *synthesis.Synthesis
	if req.Phase2Result != "" {
		syn, err = parsePhase2(req.Phase2Result)
		if err != nil {
			return nil, &ValidationError{
				Message:    fmt.Sprintf("phase2Result is not valid JSON: %v", err),
				Suggestion: "omit phase2Result or pass the phase 2 output unmodified",
			}
		}
	}

	findings := finding.Extract(p1.Findings, p1.OracleAnalysis)
	items := agenda.Build(findings, syn)

	session := &Session{
		SessionID:     uuid.New().String(),
		Scope:         p1.Scope,
		Identifier:    p1.Identifier,
		Agenda:        items,
		ActiveAgents:  activeAgents(items),
		StartedAt:     time.Now().UTC(),
		Phase1Summary: p1.Findings,
		Phase2Summary: syn,
	}
	e.store.Put(session)
	log.Printf("[revboard] session %s started: %d agenda items (%s/%s)",
		session.SessionID, len(items), session.Scope, session.Identifier)

	resp := e.currentItemResponse(session)
	if resp.CurrentItem == nil {
		// Nothing to discuss; hand back the (empty) summary immediately.
		summary := Summarize(session)
		resp.Summary = &summary
	}
	return resp, nil
}

// continueSession re-voices the item at the cursor. Repeating continue
// without an intervening decide/skip returns the same item and advances
// nothing.
func (e *Engine) continueSession(req Request) (*Response, error) {
	session, err := e.lookup(req)
	if err != nil {
		return nil, err
	}

	session.normalizeCursor()
	resp := e.currentItemResponse(session)
	if resp.CurrentItem == nil {
		summary := Summarize(session)
		resp.Summary = &summary
	}
	return resp, nil
}

// decide records a disposition for one finding and advances the cursor past
// it. Deciding an unknown finding id leaves the session unchanged.
func (e *Engine) decide(req Request) (*Response, error) {
	session, err := e.lookup(req)
	if err != nil {
		return nil, err
	}
	if req.FindingID == "" {
		return nil, &ValidationError{
			Message:    "findingId is required for decide",
			Suggestion: "pass the findingId of the current agenda item",
		}
	}
	decision := agenda.Decision(req.Decision)
	if !decision.Valid() {
		return nil, &ValidationError{
			Message:    fmt.Sprintf("unknown decision %q", req.Decision),
			Suggestion: "use one of: accept, defer, reject",
		}
	}

	item := session.findItem(req.FindingID)
	if item != nil && !item.Discussed {
		round := agenda.Round{
			FindingID:       item.FindingID,
			FindingTitle:    item.Topic,
			FindingSeverity: item.Severity,
			FindingCategory: item.Category,
			Participants:    item.RelevantAgents,
			Decision:        decision,
			DecisionReason:  req.Reason,
			DeferredTo:      req.DeferredTo,
		}
		item.Discussed = true
		item.Round = &round
		session.CompletedRounds = append(session.CompletedRounds, round)
		session.normalizeCursor()
		observability.RecordDecision(string(decision))
	}

	return e.afterMutation(session), nil
}

// skip marks one finding discussed without a decision and advances the
// cursor past it.
func (e *Engine) skip(req Request) (*Response, error) {
	session, err := e.lookup(req)
	if err != nil {
		return nil, err
	}
	if req.FindingID == "" {
		return nil, &ValidationError{
			Message:    "findingId is required for skip",
			Suggestion: "pass the findingId of the current agenda item",
		}
	}

	item := session.findItem(req.FindingID)
	if item != nil && !item.Discussed {
		item.Discussed = true
		session.normalizeCursor()
	}
	return e.afterMutation(session), nil
}

// end computes the final summary, removes the session and archives the
// outcome.
func (e *Engine) end(ctx context.Context, req Request) (*Response, error) {
	session, err := e.lookup(req)
	if err != nil {
		return nil, err
	}

	summary := Summarize(session)
	e.store.Remove(session.SessionID)
	log.Printf("[revboard] session %s ended: %d discussed, %d pending",
		session.SessionID, summary.TotalDiscussed, summary.Decisions.Pending)

	if e.recorder != nil {
		entry := archive.Entry{
			SessionID:  session.SessionID,
			Scope:      session.Scope,
			Identifier: session.Identifier,
			EndedAt:    time.Now().UTC(),
			Accepted:   summary.Decisions.Accepted,
			Deferred:   summary.Decisions.Deferred,
			Rejected:   summary.Decisions.Rejected,
			Pending:    summary.Decisions.Pending,
			Rounds:     session.CompletedRounds,
		}
		// Archival is best-effort; the session outcome is already in the
		// response.
		if err := e.recorder.Record(ctx, entry); err != nil {
			log.Printf("[revboard] archive session %s: %v", session.SessionID, err)
		}
	}

	return &Response{
		Success:      true,
		SessionID:    session.SessionID,
		State:        StateComplete,
		HasMoreItems: false,
		Summary:      &summary,
	}, nil
}

// lookup fetches the request's session from the store.
func (e *Engine) lookup(req Request) (*Session, error) {
	if req.SessionID == "" {
		return nil, &ValidationError{
			Message:    "sessionId is required",
			Suggestion: "start a discussion first and reuse its sessionId",
		}
	}
	return e.store.Get(req.SessionID)
}

// currentItemResponse voices the item at the cursor, if any.
func (e *Engine) currentItemResponse(session *Session) *Response {
	resp := &Response{
		Success:      true,
		SessionID:    session.SessionID,
		State:        session.State(),
		HasMoreItems: session.State() == StateInProgress,
	}
	if item := session.CurrentItem(); item != nil {
		resp.CurrentItem = item
		resp.CurrentResponses = persona.Respond(*item, e.roster, session.Phase2Summary)
	}
	return resp
}

// afterMutation reports the post-decide/skip state, attaching the summary
// once nothing is left pending.
func (e *Engine) afterMutation(session *Session) *Response {
	resp := &Response{
		Success:      true,
		SessionID:    session.SessionID,
		State:        session.State(),
		HasMoreItems: session.State() == StateInProgress,
		CurrentItem:  session.CurrentItem(),
	}
	if session.State() == StateComplete {
		summary := Summarize(session)
		resp.Summary = &summary
	}
	return resp
}

// failure converts an error into the uniform failure response.
func failure(err error) *Response {
	resp := &Response{Success: false, HasMoreItems: false}

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error = verr.Message
		resp.Suggestion = verr.Suggestion
	case errors.Is(err, ErrSessionNotFound):
		resp.Error = "session not found (unknown, expired, or evicted)"
		resp.Suggestion = "start a new discussion with the start action"
	default:
		resp.Error = err.Error()
	}
	return resp
}

// activeAgents collects the distinct relevant agents across the agenda in
// first-appearance order.
func activeAgents(items []agenda.Item) []synthesis.AgentType {
	seen := make(map[synthesis.AgentType]bool)
	var agents []synthesis.AgentType
	for _, item := range items {
		for _, a := range item.RelevantAgents {
			if !seen[a] {
				seen[a] = true
				agents = append(agents, a)
			}
		}
	}
	return agents
}
