// Package synthesis reduces independent per-agent review analyses into
// consensus points, debate points and aggregated priority votes.
package synthesis

// AgentType identifies a reviewer agent role.
type AgentType string

const (
	AgentArchitect  AgentType = "architect"
	AgentDev        AgentType = "dev"
	AgentTEA        AgentType = "tea"
	AgentAnalyst    AgentType = "analyst"
	AgentTechWriter AgentType = "tech-writer"
	AgentPM         AgentType = "pm"
)

// Valid reports whether a is a known agent type.
func (a AgentType) Valid() bool {
	switch a {
	case AgentArchitect, AgentDev, AgentTEA, AgentAnalyst, AgentTechWriter, AgentPM:
		return true
	}
	return false
}

// Priority is an agent's urgency assessment of a single finding.
type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityMinor     Priority = "minor"
)

// Rank maps a priority to its numeric rank: critical=0, important=1, minor=2.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityImportant:
		return 1
	case PriorityMinor:
		return 2
	}
	// Unknown priorities sort last.
	return 2
}

// PriorityFromMeanRank converts a mean rank back to the nearest priority.
func PriorityFromMeanRank(mean float64) Priority {
	switch {
	case mean < 0.5:
		return PriorityCritical
	case mean < 1.5:
		return PriorityImportant
	default:
		return PriorityMinor
	}
}

// ConsensusLevel describes how aligned the votes on a finding are.
type ConsensusLevel string

const (
	ConsensusStrong   ConsensusLevel = "strong"
	ConsensusModerate ConsensusLevel = "moderate"
	ConsensusDisputed ConsensusLevel = "disputed"
)

// PrioritizedIssue is one agent's priority vote on a finding.
type PrioritizedIssue struct {
	FindingID string   `json:"findingId"`
	Priority  Priority `json:"agentPriority"`
	Rationale string   `json:"rationale,omitempty"`
}

// AnalysisFindings groups an agent's free-text observations.
type AnalysisFindings struct {
	Agreements  []string `json:"agreements,omitempty"`
	Concerns    []string `json:"concerns,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// AgentAnalysis is one agent's independent review pass. Produced upstream,
// consumed read-only here.
type AgentAnalysis struct {
	Agent              AgentType          `json:"agent"`
	Perspective        string             `json:"perspective,omitempty"`
	Findings           AnalysisFindings   `json:"findings"`
	CrossStoryPatterns []string           `json:"crossStoryPatterns,omitempty"`
	PrioritizedIssues  []PrioritizedIssue `json:"prioritizedIssues,omitempty"`
	Summary            string             `json:"summary,omitempty"`
}

// ConsensusPoint is a topic on which a quorum of agents independently agree.
type ConsensusPoint struct {
	Topic    string      `json:"topic"`
	Agents   []AgentType `json:"agents"`
	Position string      `json:"position"`
}

// DebatePosition is one side of a debate point.
type DebatePosition struct {
	Agent    AgentType `json:"agent"`
	Position string    `json:"position"`
}

// DebatePoint is a finding on which two agents' priorities diverge sharply.
type DebatePoint struct {
	Topic     string           `json:"topic"`
	Positions []DebatePosition `json:"positions"`
}

// AggregatedPriority collects every agent's vote on one finding.
type AggregatedPriority struct {
	FindingID       string                 `json:"findingId"`
	Votes           map[AgentType]Priority `json:"votes"`
	ConsensusLevel  ConsensusLevel         `json:"consensusLevel"`
	AveragePriority Priority               `json:"averagePriority"`
}

// Synthesis is the full synthesizer output.
type Synthesis struct {
	AgentAnalyses        []AgentAnalysis      `json:"agentAnalyses"`
	ConsensusPoints      []ConsensusPoint     `json:"consensusPoints"`
	DebatePoints         []DebatePoint        `json:"debatePoints"`
	AggregatedPriorities []AggregatedPriority `json:"aggregatedPriorities"`
}
