package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revboard-dev/revboard/internal/agenda"
	"github.com/revboard-dev/revboard/internal/finding"
	"github.com/revboard-dev/revboard/internal/synthesis"
)

func secItem() agenda.Item {
	return agenda.Item{
		ID:        "item-1",
		FindingID: "finding-1",
		Topic:     "Missing auth check",
		Type:      agenda.ItemHighSeverity,
		Severity:  finding.SeverityHigh,
		Category:  finding.CategorySecurity,
		RelevantAgents: []synthesis.AgentType{
			synthesis.AgentDev, synthesis.AgentArchitect,
		},
		AgentPositions: map[synthesis.AgentType]string{
			synthesis.AgentArchitect: "The gateway must enforce this, not the handlers.",
		},
	}
}

func TestRespondOnePerRelevantAgent(t *testing.T) {
	responses := Respond(secItem(), Defaults(), nil)
	require.Len(t, responses, 2)
	assert.Equal(t, synthesis.AgentDev, responses[0].Agent)
	assert.Equal(t, synthesis.AgentArchitect, responses[1].Agent)
	for _, r := range responses {
		assert.Contains(t, r.Text, "Missing auth check")
		assert.NotEmpty(t, r.Persona)
	}
}

func TestRespondBodyPriority(t *testing.T) {
	syn := &synthesis.Synthesis{
		AgentAnalyses: []synthesis.AgentAnalysis{
			{Agent: synthesis.AgentDev, Summary: "The handler layer needs a guard clause pass."},
		},
	}

	responses := Respond(secItem(), Defaults(), syn)
	require.Len(t, responses, 2)

	// Dev has no seeded position, so its synthesized summary is used.
	assert.Contains(t, responses[0].Text, "guard clause pass")
	// Architect's seeded position wins over anything else.
	assert.Contains(t, responses[1].Text, "gateway must enforce this")
}

func TestRespondGenericFallback(t *testing.T) {
	item := secItem()
	item.AgentPositions = nil
	responses := Respond(item, Defaults(), nil)
	require.Len(t, responses, 2)
	assert.Contains(t, responses[0].Text, "high severity security issue")
}

func TestCollaborativeAgentsReferencePreviousSpeaker(t *testing.T) {
	// Dev speaks first, then the architect (collaborative) builds on it.
	responses := Respond(secItem(), Defaults(), nil)
	require.Len(t, responses, 2)

	dev, architect := responses[0], responses[1]
	assert.Empty(t, dev.References)
	assert.Contains(t, architect.Text, dev.Persona)
	require.Len(t, architect.References, 1)
	assert.Equal(t, dev.Persona, architect.References[0].Name)
	assert.Equal(t, RelBuildsOn, architect.References[0].Relationship)
}

func TestKeyPoints(t *testing.T) {
	responses := Respond(secItem(), Defaults(), nil)
	for _, r := range responses {
		assert.NotEmpty(t, r.KeyPoints)
		assert.LessOrEqual(t, len(r.KeyPoints), 2)
		for _, kp := range r.KeyPoints {
			assert.Greater(t, len(kp), 10)
		}
	}
}

func TestRespondDeterministic(t *testing.T) {
	first := Respond(secItem(), Defaults(), nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Respond(secItem(), Defaults(), nil))
	}
}
