package discussion

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revboard-dev/revboard/internal/agenda"
	"github.com/revboard-dev/revboard/internal/archive"
	"github.com/revboard-dev/revboard/internal/persona"
	"github.com/revboard-dev/revboard/pkg/tool"
)

const phase1JSON = `{
	"scope": "sprint",
	"identifier": "sprint-42",
	"findings": {"total": 1, "high": 1, "medium": 0, "low": 0},
	"oracleAnalysis": "[HIGH] Missing auth check"
}`

const phase2JSON = `{
	"identifier": "sprint-42",
	"agentAnalyses": [
		{"agent": "architect", "summary": "Gateway coverage is the real issue.", "findings": {}},
		{"agent": "dev", "summary": "Handlers need guard clauses.", "findings": {}}
	],
	"debatePoints": [
		{"topic": "Caching strategy", "positions": [
			{"agent": "architect", "position": "critical: needs a shared cache"},
			{"agent": "dev", "position": "minor: premature optimization"}
		]}
	]
}`

func newTestEngine(t *testing.T) (*Engine, *archive.MemoryRecorder, *fakeClock) {
	t.Helper()
	store, clock := newTestStore(10, 30*time.Minute)
	recorder := archive.NewMemoryRecorder()
	engine := NewEngine(store, persona.Defaults(), WithRecorder(recorder))
	return engine, recorder, clock
}

func startSession(t *testing.T, engine *Engine) *Response {
	t.Helper()
	resp := engine.Dispatch(context.Background(), Request{
		Action:       ActionStart,
		Phase1Result: phase1JSON,
		Phase2Result: phase2JSON,
	})
	require.True(t, resp.Success, "start failed: %s", resp.Error)
	require.NotEmpty(t, resp.SessionID)
	return resp
}

func TestStartBuildsAgendaAndVoicesFirstItem(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	resp := startSession(t, engine)

	assert.Equal(t, StateInProgress, resp.State)
	assert.True(t, resp.HasMoreItems)
	require.NotNil(t, resp.CurrentItem)
	assert.Equal(t, "Missing auth check", resp.CurrentItem.Topic)
	assert.Equal(t, agenda.ItemHighSeverity, resp.CurrentItem.Type)
	assert.NotEmpty(t, resp.CurrentResponses)
}

func TestStartValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	tests := []struct {
		name string
		req  Request
	}{
		{"missing_phase1", Request{Action: ActionStart}},
		{"malformed_phase1", Request{Action: ActionStart, Phase1Result: "{broken"}},
		{"malformed_phase2", Request{Action: ActionStart, Phase1Result: phase1JSON, Phase2Result: "not json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := engine.Dispatch(context.Background(), tt.req)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.Suggestion)
		})
	}
}

func TestStartWithPlaceholderFallback(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	resp := engine.Dispatch(context.Background(), Request{
		Action:       ActionStart,
		Phase1Result: `{"scope":"story","identifier":"s-1","findings":{"high":2}}`,
	})
	require.True(t, resp.Success)
	require.NotNil(t, resp.CurrentItem)
	assert.Equal(t, "High severity finding 1", resp.CurrentItem.Topic)
}

func TestStartWithNothingToDiscuss(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	resp := engine.Dispatch(context.Background(), Request{
		Action:       ActionStart,
		Phase1Result: `{"scope":"story","identifier":"s-1","findings":{}}`,
	})
	require.True(t, resp.Success)
	assert.Equal(t, StateComplete, resp.State)
	assert.False(t, resp.HasMoreItems)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 0, resp.Summary.TotalDiscussed)
}

func TestContinueIsIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	start := startSession(t, engine)

	first := engine.Dispatch(context.Background(), Request{Action: ActionContinue, SessionID: start.SessionID})
	second := engine.Dispatch(context.Background(), Request{Action: ActionContinue, SessionID: start.SessionID})

	require.True(t, first.Success)
	require.True(t, second.Success)
	require.NotNil(t, first.CurrentItem)
	require.NotNil(t, second.CurrentItem)
	assert.Equal(t, first.CurrentItem.ID, second.CurrentItem.ID)
	assert.Equal(t, first.CurrentResponses, second.CurrentResponses)
}

func TestContinueUnknownSession(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	resp := engine.Dispatch(context.Background(), Request{Action: ActionContinue, SessionID: "nope"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "session not found")
}

func TestExpiredSessionBecomesUnreachable(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	start := startSession(t, engine)

	clock.advance(31 * time.Minute)
	resp := engine.Dispatch(context.Background(), Request{Action: ActionContinue, SessionID: start.SessionID})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "session not found")
}

func TestEndToEndScenario(t *testing.T) {
	engine, recorder, _ := newTestEngine(t)
	ctx := context.Background()
	start := startSession(t, engine)

	// Agenda: the high-severity finding first, then the disputed debate.
	session, err := engine.store.Get(start.SessionID)
	require.NoError(t, err)
	require.Len(t, session.Agenda, 2)
	assert.Equal(t, agenda.ItemHighSeverity, session.Agenda[0].Type)
	assert.Equal(t, agenda.ItemDisputed, session.Agenda[1].Type)
	assert.Equal(t, "Caching strategy", session.Agenda[1].Topic)

	// Accept the first finding: cursor advances to the debate item.
	resp := engine.Dispatch(ctx, Request{
		Action:    ActionDecide,
		SessionID: start.SessionID,
		FindingID: session.Agenda[0].FindingID,
		Decision:  "accept",
		Reason:    "fix in this sprint",
	})
	require.True(t, resp.Success)
	assert.True(t, resp.HasMoreItems)
	require.NotNil(t, resp.CurrentItem)
	assert.Equal(t, "Caching strategy", resp.CurrentItem.Topic)

	// Reject the debate item: session is complete and summarized.
	resp = engine.Dispatch(ctx, Request{
		Action:    ActionDecide,
		SessionID: start.SessionID,
		FindingID: session.Agenda[1].FindingID,
		Decision:  "reject",
	})
	require.True(t, resp.Success)
	assert.False(t, resp.HasMoreItems)
	assert.Equal(t, StateComplete, resp.State)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, DecisionCounts{Accepted: 1, Rejected: 1}, resp.Summary.Decisions)

	// End removes the session and archives the outcome.
	resp = engine.Dispatch(ctx, Request{Action: ActionEnd, SessionID: start.SessionID})
	require.True(t, resp.Success)
	require.NotNil(t, resp.Summary)

	entries, err := recorder.List(ctx, "sprint", "sprint-42")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Accepted)
	assert.Equal(t, 1, entries[0].Rejected)
	assert.Len(t, entries[0].Rounds, 2)

	resp = engine.Dispatch(ctx, Request{Action: ActionContinue, SessionID: start.SessionID})
	assert.False(t, resp.Success)
}

func TestDecideValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	start := startSession(t, engine)

	tests := []struct {
		name string
		req  Request
	}{
		{"missing_finding", Request{Action: ActionDecide, SessionID: start.SessionID, Decision: "accept"}},
		{"unknown_decision", Request{Action: ActionDecide, SessionID: start.SessionID, FindingID: "finding-1", Decision: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := engine.Dispatch(context.Background(), tt.req)
			assert.False(t, resp.Success)
		})
	}
}

func TestDecideUnknownFindingIsNoOp(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	start := startSession(t, engine)

	resp := engine.Dispatch(context.Background(), Request{
		Action:    ActionDecide,
		SessionID: start.SessionID,
		FindingID: "does-not-exist",
		Decision:  "accept",
	})
	require.True(t, resp.Success)
	assert.True(t, resp.HasMoreItems)

	session, err := engine.store.Get(start.SessionID)
	require.NoError(t, err)
	assert.Empty(t, session.CompletedRounds)
	assert.Equal(t, 0, session.CurrentItemIndex)
}

func TestDecideTwiceKeepsFirstRound(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	start := startSession(t, engine)

	decide := func(decision string) {
		resp := engine.Dispatch(context.Background(), Request{
			Action:    ActionDecide,
			SessionID: start.SessionID,
			FindingID: "finding-1",
			Decision:  decision,
		})
		require.True(t, resp.Success)
	}
	decide("accept")
	decide("reject")

	session, err := engine.store.Get(start.SessionID)
	require.NoError(t, err)
	require.Len(t, session.CompletedRounds, 1)
	assert.Equal(t, agenda.DecisionAccept, session.CompletedRounds[0].Decision)
}

func TestSkipLeavesNoRound(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	start := startSession(t, engine)

	resp := engine.Dispatch(context.Background(), Request{
		Action:    ActionSkip,
		SessionID: start.SessionID,
		FindingID: "finding-1",
	})
	require.True(t, resp.Success)
	require.NotNil(t, resp.CurrentItem)
	assert.Equal(t, "Caching strategy", resp.CurrentItem.Topic)

	session, err := engine.store.Get(start.SessionID)
	require.NoError(t, err)
	assert.True(t, session.Agenda[0].Discussed)
	assert.Nil(t, session.Agenda[0].Round)
	assert.Empty(t, session.CompletedRounds)
}

func TestDeferFeedsStoryUpdates(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	start := startSession(t, engine)

	engine.Dispatch(context.Background(), Request{
		Action:     ActionDecide,
		SessionID:  start.SessionID,
		FindingID:  "finding-1",
		Decision:   "defer",
		DeferredTo: "story-9",
	})
	resp := engine.Dispatch(context.Background(), Request{Action: ActionEnd, SessionID: start.SessionID})
	require.True(t, resp.Success)
	require.Len(t, resp.Summary.StoryUpdatesNeeded, 1)
	assert.Equal(t, "story-9", resp.Summary.StoryUpdatesNeeded[0].StoryID)
	assert.Equal(t, []string{"Missing auth check"}, resp.Summary.StoryUpdatesNeeded[0].Additions)
}

func TestSessionJSONRoundTrip(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	start := startSession(t, engine)

	engine.Dispatch(context.Background(), Request{
		Action:    ActionSkip,
		SessionID: start.SessionID,
		FindingID: "finding-1",
	})
	session, err := engine.store.Get(start.SessionID)
	require.NoError(t, err)

	data, err := json.Marshal(session)
	require.NoError(t, err)
	var restored Session
	require.NoError(t, json.Unmarshal(data, &restored))

	require.Len(t, restored.Agenda, len(session.Agenda))
	for i := range session.Agenda {
		assert.Equal(t, session.Agenda[i].ID, restored.Agenda[i].ID)
		assert.Equal(t, session.Agenda[i].Discussed, restored.Agenda[i].Discussed)
	}
	assert.Equal(t, session.CurrentItemIndex, restored.CurrentItemIndex)
}

func TestUnknownAction(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	resp := engine.Dispatch(context.Background(), Request{Action: "poke"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Suggestion, "start")
}

func TestToolBinding(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	server := tool.NewServer("test")
	require.NoError(t, server.RegisterTool(NewTool(engine)))

	out, err := server.CallTool(context.Background(), ToolName, tool.Args{
		"action":       "start",
		"phase1Result": phase1JSON,
	})
	require.NoError(t, err)
	resp, ok := out.(*Response)
	require.True(t, ok)
	assert.True(t, resp.Success)

	// Action outside the schema enum is rejected before dispatch.
	_, err = server.CallTool(context.Background(), ToolName, tool.Args{"action": "poke"})
	assert.Error(t, err)

	// Failures inside the engine still come back as a response, not an error.
	out, err = server.CallTool(context.Background(), ToolName, tool.Args{
		"action":    "continue",
		"sessionId": "nope",
	})
	require.NoError(t, err)
	resp = out.(*Response)
	assert.False(t, resp.Success)
}
