// Package agenda turns extracted findings and synthesized analysis into the
// ordered list of discussion items for a session.
package agenda

import (
	"github.com/revboard-dev/revboard/internal/finding"
	"github.com/revboard-dev/revboard/internal/synthesis"
)

// ItemType distinguishes why an item is on the agenda.
type ItemType string

const (
	// ItemHighSeverity items come straight from extracted findings.
	ItemHighSeverity ItemType = "high-severity"
	// ItemDisputed items come from cross-agent debate points.
	ItemDisputed ItemType = "disputed"
)

// Decision is the operator's disposition for one agenda item.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionDefer  Decision = "defer"
	DecisionReject Decision = "reject"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionAccept, DecisionDefer, DecisionReject:
		return true
	}
	return false
}

// Round is the finalized record for one discussed agenda item.
type Round struct {
	FindingID       string                `json:"findingId"`
	FindingTitle    string                `json:"findingTitle"`
	FindingSeverity finding.Severity      `json:"findingSeverity"`
	FindingCategory finding.Category      `json:"findingCategory"`
	Participants    []synthesis.AgentType `json:"participants"`
	Decision        Decision              `json:"decision"`
	DecisionReason  string                `json:"decisionReason,omitempty"`
	DeferredTo      string                `json:"deferredTo,omitempty"`
}

// Item is one unit of discussion. Agenda order and item identity are fixed at
// session creation; only Discussed and Round mutate afterward.
type Item struct {
	ID             string                         `json:"id"`
	FindingID      string                         `json:"findingId"`
	Topic          string                         `json:"topic"`
	Type           ItemType                       `json:"type"`
	Severity       finding.Severity               `json:"severity"`
	Category       finding.Category               `json:"category"`
	RelevantAgents []synthesis.AgentType          `json:"relevantAgents"`
	AgentPositions map[synthesis.AgentType]string `json:"agentPositions,omitempty"`
	Discussed      bool                           `json:"discussed"`
	Round          *Round                         `json:"round,omitempty"`
}
