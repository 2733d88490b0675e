package discussion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revboard-dev/revboard/internal/agenda"
)

func sessionWithRounds() *Session {
	items := []agenda.Item{
		{ID: "item-1", FindingID: "f1", Topic: "Auth gap"},
		{ID: "item-2", FindingID: "f2", Topic: "Slow query"},
		{ID: "item-3", FindingID: "f3", Topic: "Naming drift"},
		{ID: "item-4", FindingID: "f4", Topic: "Cache debate"},
	}
	s := &Session{SessionID: "s1", Agenda: items}

	decide := func(findingID string, d agenda.Decision, deferredTo string) {
		item := s.findItem(findingID)
		round := agenda.Round{
			FindingID:    findingID,
			FindingTitle: item.Topic,
			Decision:     d,
			DeferredTo:   deferredTo,
		}
		item.Discussed = true
		item.Round = &round
		s.CompletedRounds = append(s.CompletedRounds, round)
	}

	decide("f1", agenda.DecisionAccept, "")
	decide("f2", agenda.DecisionDefer, "story-7")
	decide("f3", agenda.DecisionReject, "")
	s.normalizeCursor()
	return s
}

func TestSummarizeCounts(t *testing.T) {
	s := sessionWithRounds()
	summary := Summarize(s)

	assert.Equal(t, 3, summary.TotalDiscussed)
	assert.Equal(t, 1, summary.Decisions.Accepted)
	assert.Equal(t, 1, summary.Decisions.Deferred)
	assert.Equal(t, 1, summary.Decisions.Rejected)
	assert.Equal(t, 1, summary.Decisions.Pending)
}

func TestSummarizeInvariant(t *testing.T) {
	// accepted + deferred + rejected + pending == agenda length at every
	// reachable point, including after skips.
	s := sessionWithRounds()

	check := func() {
		sum := Summarize(s)
		total := sum.Decisions.Accepted + sum.Decisions.Deferred +
			sum.Decisions.Rejected + sum.Decisions.Pending
		assert.Equal(t, len(s.Agenda), total)
	}

	check()
	// Skip the remaining item: discussed but no round, still pending.
	s.Agenda[3].Discussed = true
	s.normalizeCursor()
	check()
}

func TestSummarizeStoryUpdates(t *testing.T) {
	s := sessionWithRounds()
	// Another deferral to the same story and one to a second story.
	s.CompletedRounds = append(s.CompletedRounds,
		agenda.Round{FindingID: "f4", FindingTitle: "Cache debate", Decision: agenda.DecisionDefer, DeferredTo: "story-7"},
		agenda.Round{FindingID: "f5", FindingTitle: "Late one", Decision: agenda.DecisionDefer, DeferredTo: "story-9"},
	)

	summary := Summarize(s)
	require.Len(t, summary.StoryUpdatesNeeded, 2)
	assert.Equal(t, "story-7", summary.StoryUpdatesNeeded[0].StoryID)
	assert.Equal(t, []string{"Slow query", "Cache debate"}, summary.StoryUpdatesNeeded[0].Additions)
	assert.Equal(t, "story-9", summary.StoryUpdatesNeeded[1].StoryID)
}

func TestSummarizeDeferWithoutTargetStory(t *testing.T) {
	s := &Session{
		Agenda: []agenda.Item{{FindingID: "f1", Discussed: true, Round: &agenda.Round{Decision: agenda.DecisionDefer}}},
		CompletedRounds: []agenda.Round{
			{FindingID: "f1", Decision: agenda.DecisionDefer},
		},
	}
	summary := Summarize(s)
	assert.Equal(t, 1, summary.Decisions.Deferred)
	assert.Empty(t, summary.StoryUpdatesNeeded)
}

func TestSummarizeEmptySession(t *testing.T) {
	summary := Summarize(&Session{})
	assert.Equal(t, 0, summary.TotalDiscussed)
	assert.Equal(t, DecisionCounts{}, summary.Decisions)
}
