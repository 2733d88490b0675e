package discussion

import "github.com/revboard-dev/revboard/internal/agenda"

// DecisionCounts tallies dispositions across a session. The four counts
// always sum to the agenda length.
type DecisionCounts struct {
	Accepted int `json:"accepted"`
	Deferred int `json:"deferred"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// StoryUpdate lists the deferred-finding titles destined for one story.
type StoryUpdate struct {
	StoryID   string   `json:"storyId"`
	Additions []string `json:"additions"`
}

// Summary is the final decision summary for a session.
type Summary struct {
	TotalDiscussed     int            `json:"totalDiscussed"`
	Decisions          DecisionCounts `json:"decisions"`
	StoryUpdatesNeeded []StoryUpdate  `json:"storyUpdatesNeeded,omitempty"`
}

// Summarize reduces a session's completed rounds and undiscussed items to
// aggregate decision counts and per-story follow-up actions.
func Summarize(s *Session) Summary {
	summary := Summary{TotalDiscussed: len(s.CompletedRounds)}

	deferredByStory := make(map[string][]string)
	var storyOrder []string

	for _, round := range s.CompletedRounds {
		switch round.Decision {
		case agenda.DecisionAccept:
			summary.Decisions.Accepted++
		case agenda.DecisionDefer:
			summary.Decisions.Deferred++
			if round.DeferredTo != "" {
				if _, seen := deferredByStory[round.DeferredTo]; !seen {
					storyOrder = append(storyOrder, round.DeferredTo)
				}
				deferredByStory[round.DeferredTo] = append(deferredByStory[round.DeferredTo], round.FindingTitle)
			}
		case agenda.DecisionReject:
			summary.Decisions.Rejected++
		}
	}

	// Skipped items count as pending alongside the item at the cursor.
	for _, item := range s.Agenda {
		if !item.Discussed || item.Round == nil {
			summary.Decisions.Pending++
		}
	}

	for _, storyID := range storyOrder {
		summary.StoryUpdatesNeeded = append(summary.StoryUpdatesNeeded, StoryUpdate{
			StoryID:   storyID,
			Additions: deferredByStory[storyID],
		})
	}
	return summary
}
