package synthesis

import (
	"math"
	"strings"
)

// prefixTokens is how many leading tokens of a normalized statement form its
// bucket key. Two statements sharing the first five tokens are treated as the
// same position; this is deterministic text normalization, not semantic
// similarity.
const prefixTokens = 5

// debateRankGap is the minimum priority rank distance that turns a pair of
// votes into a debate point.
const debateRankGap = 2

// Synthesize reduces N independent agent analyses to consensus points, debate
// points and aggregated per-finding priorities. It is pure: identical input
// yields identical output regardless of call order.
func Synthesize(analyses []AgentAnalysis) *Synthesis {
	return &Synthesis{
		AgentAnalyses:        analyses,
		ConsensusPoints:      detectConsensus(analyses),
		DebatePoints:         detectDebates(analyses),
		AggregatedPriorities: aggregatePriorities(analyses),
	}
}

// ConsensusThreshold returns the minimum number of agents that must agree for
// a consensus point: at least two, and at least half of all agents.
func ConsensusThreshold(totalAgents int) int {
	half := int(math.Ceil(float64(totalAgents) * 0.5))
	if half < 2 {
		return 2
	}
	return half
}

type bucket struct {
	first  string // first original (non-normalized) statement seen
	agents []AgentType
}

// detectConsensus groups normalized agreement/concern statements across
// agents and emits one point per bucket that clears the quorum threshold.
func detectConsensus(analyses []AgentAnalysis) []ConsensusPoint {
	buckets := make(map[string]*bucket)
	var order []string // first-seen key order keeps output stable

	for _, a := range analyses {
		seen := make(map[string]bool) // count each agent once per bucket
		statements := append(append([]string{}, a.Findings.Agreements...), a.Findings.Concerns...)
		for _, stmt := range statements {
			key := normalizeKey(stmt)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			b, ok := buckets[key]
			if !ok {
				b = &bucket{first: stmt}
				buckets[key] = b
				order = append(order, key)
			}
			b.agents = append(b.agents, a.Agent)
		}
	}

	threshold := ConsensusThreshold(len(analyses))
	points := make([]ConsensusPoint, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		if len(b.agents) < threshold {
			continue
		}
		points = append(points, ConsensusPoint{
			Topic:    b.first,
			Agents:   b.agents,
			Position: b.first,
		})
	}
	return points
}

// detectDebates compares every unordered agent pair's priority votes. A pair
// of votes on the same finding whose ranks differ by at least two produces a
// debate point carrying both rationales.
func detectDebates(analyses []AgentAnalysis) []DebatePoint {
	var points []DebatePoint
	for i := 0; i < len(analyses); i++ {
		for j := i + 1; j < len(analyses); j++ {
			a, b := analyses[i], analyses[j]
			for _, ia := range a.PrioritizedIssues {
				for _, ib := range b.PrioritizedIssues {
					if !sameFinding(ia.FindingID, ib.FindingID) {
						continue
					}
					gap := ia.Priority.Rank() - ib.Priority.Rank()
					if gap < 0 {
						gap = -gap
					}
					if gap < debateRankGap {
						continue
					}
					points = append(points, DebatePoint{
						Topic: ia.FindingID,
						Positions: []DebatePosition{
							{Agent: a.Agent, Position: positionText(ia)},
							{Agent: b.Agent, Position: positionText(ib)},
						},
					})
				}
			}
		}
	}
	return points
}

// aggregatePriorities groups all votes by finding id and summarizes each
// group's alignment and mean priority.
func aggregatePriorities(analyses []AgentAnalysis) []AggregatedPriority {
	votes := make(map[string]map[AgentType]Priority)
	var order []string

	for _, a := range analyses {
		for _, issue := range a.PrioritizedIssues {
			group, ok := votes[issue.FindingID]
			if !ok {
				group = make(map[AgentType]Priority)
				votes[issue.FindingID] = group
				order = append(order, issue.FindingID)
			}
			group[a.Agent] = issue.Priority
		}
	}

	aggregated := make([]AggregatedPriority, 0, len(order))
	for _, id := range order {
		group := votes[id]
		distinct := make(map[Priority]bool)
		rankSum := 0
		for _, p := range group {
			distinct[p] = true
			rankSum += p.Rank()
		}

		level := ConsensusStrong
		switch len(distinct) {
		case 0, 1:
			level = ConsensusStrong
		case 2:
			level = ConsensusModerate
		default:
			level = ConsensusDisputed
		}

		aggregated = append(aggregated, AggregatedPriority{
			FindingID:       id,
			Votes:           group,
			ConsensusLevel:  level,
			AveragePriority: PriorityFromMeanRank(float64(rankSum) / float64(len(group))),
		})
	}
	return aggregated
}

// sameFinding reports whether two finding ids refer to the same finding,
// using case-insensitive substring matching in either direction.
func sameFinding(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// positionText renders one vote as a readable debate position.
func positionText(issue PrioritizedIssue) string {
	if issue.Rationale == "" {
		return string(issue.Priority)
	}
	return string(issue.Priority) + ": " + issue.Rationale
}

// normalizeKey reduces a statement to its comparison key: lowercase, strip
// punctuation, keep the first few tokens.
func normalizeKey(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	var sb strings.Builder
	for _, r := range lower {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	tokens := strings.Fields(sb.String())
	if len(tokens) > prefixTokens {
		tokens = tokens[:prefixTokens]
	}
	return strings.Join(tokens, " ")
}
