// Package discussion drives the multi-turn review walkthrough: it owns the
// session model, the bounded in-memory session store, the action state
// machine and the final decision summary.
package discussion

import (
	"encoding/json"
	"time"

	"github.com/revboard-dev/revboard/internal/agenda"
	"github.com/revboard-dev/revboard/internal/finding"
	"github.com/revboard-dev/revboard/internal/synthesis"
)

// State is the session-level cursor state.
type State string

const (
	// StateInProgress means undiscussed agenda items remain.
	StateInProgress State = "in-progress"
	// StateComplete means every agenda item has been discussed.
	StateComplete State = "complete"
)

// Session is one resumable walkthrough of an agenda for a review scope.
// Agenda length and item identity never change after creation; only each
// item's Discussed flag and Round, the cursor and CompletedRounds mutate.
type Session struct {
	SessionID        string                `json:"sessionId"`
	Scope            string                `json:"scope"`
	Identifier       string                `json:"identifier"`
	Agenda           []agenda.Item         `json:"agenda"`
	CurrentItemIndex int                   `json:"currentItemIndex"`
	CompletedRounds  []agenda.Round        `json:"completedRounds"`
	ActiveAgents     []synthesis.AgentType `json:"activeAgents"`
	StartedAt        time.Time             `json:"startedAt"`
	Phase1Summary    finding.Summary       `json:"phase1Summary"`
	Phase2Summary    *synthesis.Synthesis  `json:"phase2Summary,omitempty"`
}

// State returns in-progress while the cursor is inside the agenda.
func (s *Session) State() State {
	if s.CurrentItemIndex >= len(s.Agenda) {
		return StateComplete
	}
	return StateInProgress
}

// CurrentItem returns the item at the cursor, or nil when complete.
func (s *Session) CurrentItem() *agenda.Item {
	if s.CurrentItemIndex < 0 || s.CurrentItemIndex >= len(s.Agenda) {
		return nil
	}
	return &s.Agenda[s.CurrentItemIndex]
}

// normalizeCursor restores the cursor invariant: it always points at the
// first undiscussed item, or one past the end when none remain.
func (s *Session) normalizeCursor() {
	for i := range s.Agenda {
		if !s.Agenda[i].Discussed {
			s.CurrentItemIndex = i
			return
		}
	}
	s.CurrentItemIndex = len(s.Agenda)
}

// findItem locates an agenda item by finding id.
func (s *Session) findItem(findingID string) *agenda.Item {
	for i := range s.Agenda {
		if s.Agenda[i].FindingID == findingID {
			return &s.Agenda[i]
		}
	}
	return nil
}

// Phase1Result is the upstream single-pass review artifact: the finding
// counts plus optional free-form analysis text. It arrives as a JSON string
// on the tool boundary.
type Phase1Result struct {
	Scope          string          `json:"scope"`
	Identifier     string          `json:"identifier"`
	Findings       finding.Summary `json:"findings"`
	OracleAnalysis string          `json:"oracleAnalysis,omitempty"`
}

// Phase2Result is the optional multi-agent analysis artifact. The synthesis
// fields may be pre-computed upstream; when present they take precedence
// over re-synthesizing from the raw analyses.
type Phase2Result struct {
	Identifier           string                         `json:"identifier"`
	AgentAnalyses        []synthesis.AgentAnalysis      `json:"agentAnalyses,omitempty"`
	ConsensusPoints      []synthesis.ConsensusPoint     `json:"consensusPoints,omitempty"`
	DebatePoints         []synthesis.DebatePoint        `json:"debatePoints,omitempty"`
	AggregatedPriorities []synthesis.AggregatedPriority `json:"aggregatedPriorities,omitempty"`
}

// parsePhase1 decodes the phase 1 JSON string.
func parsePhase1(raw string) (*Phase1Result, error) {
	var p1 Phase1Result
	if err := json.Unmarshal([]byte(raw), &p1); err != nil {
		return nil, err
	}
	return &p1, nil
}

// parsePhase2 decodes the phase 2 JSON string and folds it into a synthesis:
// raw analyses are synthesized, then any pre-computed points override the
// locally computed ones.
func parsePhase2(raw string) (*synthesis.Synthesis, error) {
	var p2 Phase2Result
	if err := json.Unmarshal([]byte(raw), &p2); err != nil {
		return nil, err
	}

	syn := synthesis.Synthesize(p2.AgentAnalyses)
	if len(p2.ConsensusPoints) > 0 {
		syn.ConsensusPoints = p2.ConsensusPoints
	}
	if len(p2.DebatePoints) > 0 {
		syn.DebatePoints = p2.DebatePoints
	}
	if len(p2.AggregatedPriorities) > 0 {
		syn.AggregatedPriorities = p2.AggregatedPriorities
	}
	return syn, nil
}
