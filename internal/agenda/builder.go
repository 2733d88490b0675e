package agenda

import (
	"fmt"
	"strings"

	"github.com/revboard-dev/revboard/internal/finding"
	"github.com/revboard-dev/revboard/internal/synthesis"
)

// maxRelevantAgents caps how many agents weigh in on one item.
const maxRelevantAgents = 4

// RelevantAgents returns the fixed set of agents for a finding's category,
// with the PM pulled in for high-severity findings.
func RelevantAgents(category finding.Category, severity finding.Severity) []synthesis.AgentType {
	var agents []synthesis.AgentType
	switch category {
	case finding.CategorySecurity:
		agents = []synthesis.AgentType{synthesis.AgentArchitect, synthesis.AgentDev, synthesis.AgentTEA}
	case finding.CategoryLogic:
		agents = []synthesis.AgentType{synthesis.AgentDev, synthesis.AgentTEA, synthesis.AgentAnalyst}
	case finding.CategoryPerformance:
		agents = []synthesis.AgentType{synthesis.AgentArchitect, synthesis.AgentDev}
	case finding.CategoryBestPractices:
		agents = []synthesis.AgentType{synthesis.AgentDev, synthesis.AgentTechWriter}
	default:
		agents = []synthesis.AgentType{synthesis.AgentDev, synthesis.AgentArchitect}
	}

	if severity == finding.SeverityHigh && !containsAgent(agents, synthesis.AgentPM) {
		agents = append(agents, synthesis.AgentPM)
	}
	if len(agents) > maxRelevantAgents {
		agents = agents[:maxRelevantAgents]
	}
	return agents
}

// Build assembles the agenda: one high-severity item per finding in
// extraction order, then one disputed item per debate point whose topic is
// not already covered. All items start undiscussed.
func Build(findings []finding.Finding, syn *synthesis.Synthesis) []Item {
	items := make([]Item, 0, len(findings))

	for i, f := range findings {
		agents := RelevantAgents(f.Category, f.Severity)
		items = append(items, Item{
			ID:             fmt.Sprintf("item-%d", i+1),
			FindingID:      f.ID,
			Topic:          f.Title,
			Type:           ItemHighSeverity,
			Severity:       f.Severity,
			Category:       f.Category,
			RelevantAgents: agents,
			AgentPositions: seedPositions(f, agents, syn),
		})
	}

	if syn == nil {
		return items
	}

	for _, dp := range syn.DebatePoints {
		if topicCovered(items, dp.Topic) {
			continue
		}
		agents := make([]synthesis.AgentType, 0, len(dp.Positions))
		positions := make(map[synthesis.AgentType]string, len(dp.Positions))
		for _, p := range dp.Positions {
			agents = append(agents, p.Agent)
			positions[p.Agent] = p.Position
		}
		items = append(items, Item{
			ID:             fmt.Sprintf("item-%d", len(items)+1),
			FindingID:      fmt.Sprintf("debate-%s", slug(dp.Topic)),
			Topic:          dp.Topic,
			Type:           ItemDisputed,
			Severity:       finding.SeverityMedium,
			Category:       finding.CategoryLogic,
			RelevantAgents: agents,
			AgentPositions: positions,
		})
	}
	return items
}

// seedPositions pre-fills each relevant agent's position on a finding from,
// in order: its prioritized-issue rationale, its first recorded concern,
// nothing.
func seedPositions(f finding.Finding, agents []synthesis.AgentType, syn *synthesis.Synthesis) map[synthesis.AgentType]string {
	if syn == nil {
		return nil
	}

	positions := make(map[synthesis.AgentType]string)
	for _, agent := range agents {
		for _, a := range syn.AgentAnalyses {
			if a.Agent != agent {
				continue
			}
			if rationale := findRationale(a, f); rationale != "" {
				positions[agent] = rationale
			} else if len(a.Findings.Concerns) > 0 {
				positions[agent] = a.Findings.Concerns[0]
			}
			break
		}
	}
	if len(positions) == 0 {
		return nil
	}
	return positions
}

// findRationale looks for the agent's vote on this finding, matching the
// vote's finding id against the finding's id or title.
func findRationale(a synthesis.AgentAnalysis, f finding.Finding) string {
	for _, issue := range a.PrioritizedIssues {
		if matchesFinding(issue.FindingID, f) && issue.Rationale != "" {
			return issue.Rationale
		}
	}
	return ""
}

func matchesFinding(voteID string, f finding.Finding) bool {
	vote := strings.ToLower(voteID)
	id := strings.ToLower(f.ID)
	title := strings.ToLower(f.Title)
	return vote == id ||
		strings.Contains(title, vote) || strings.Contains(vote, title)
}

func topicCovered(items []Item, topic string) bool {
	for _, it := range items {
		if it.Topic == topic {
			return true
		}
	}
	return false
}

func containsAgent(agents []synthesis.AgentType, a synthesis.AgentType) bool {
	for _, existing := range agents {
		if existing == a {
			return true
		}
	}
	return false
}

func slug(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), "-")
}
