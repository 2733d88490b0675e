package persona

import (
	"fmt"
	"strings"

	"github.com/revboard-dev/revboard/internal/agenda"
	"github.com/revboard-dev/revboard/internal/synthesis"
)

// minKeyPointLen filters trivial sentence fragments out of key points.
const minKeyPointLen = 10

// Relationship classifies how a response relates to an earlier one.
type Relationship string

const (
	RelDisagrees Relationship = "disagrees"
	RelBuildsOn  Relationship = "builds-on"
	RelAgrees    Relationship = "agrees"
)

// Reference records that a response mentioned an earlier responder.
type Reference struct {
	Name         string       `json:"name"`
	Relationship Relationship `json:"relationship"`
}

// Response is one agent's simulated reaction to an agenda item.
type Response struct {
	Agent      synthesis.AgentType `json:"agent"`
	Persona    string              `json:"persona"`
	Icon       string              `json:"icon,omitempty"`
	Text       string              `json:"text"`
	References []Reference         `json:"references,omitempty"`
	KeyPoints  []string            `json:"keyPoints,omitempty"`
}

// collaborative agent types weave the previous speaker into their response.
var collaborative = map[synthesis.AgentType]bool{
	synthesis.AgentArchitect: true,
	synthesis.AgentPM:        true,
	synthesis.AgentAnalyst:   true,
}

// Respond produces one response per relevant agent of the item, in the
// item's agent order. Output is deterministic given the item, roster and
// synthesis.
func Respond(item agenda.Item, roster Roster, syn *synthesis.Synthesis) []Response {
	responses := make([]Response, 0, len(item.RelevantAgents))
	for _, agent := range item.RelevantAgents {
		responses = append(responses, respondOne(item, roster.Get(agent), syn, responses))
	}
	return responses
}

// respondOne builds a single agent's response given everything said so far
// in this turn.
func respondOne(item agenda.Item, p Persona, syn *synthesis.Synthesis, prior []Response) Response {
	var sb strings.Builder
	sb.WriteString(intro(p, item.Topic))

	sb.WriteString(" ")
	sb.WriteString(body(item, p, syn))

	if collaborative[p.Agent] && len(prior) > 0 {
		last := prior[len(prior)-1]
		sb.WriteString(fmt.Sprintf(" Building on %s's point, I'd weigh that into the decision here.", last.Persona))
	}

	text := sb.String()
	return Response{
		Agent:      p.Agent,
		Persona:    p.Name,
		Icon:       p.Icon,
		Text:       text,
		References: findReferences(text, prior),
		KeyPoints:  keyPoints(text),
	}
}

// intro opens the response in a voice keyed by the persona type.
func intro(p Persona, topic string) string {
	switch p.Type {
	case "technical":
		return fmt.Sprintf("%s here. Looking at %q from the technical side:", p.Name, topic)
	case "quality":
		return fmt.Sprintf("%s here. From a testing standpoint on %q:", p.Name, topic)
	case "product":
		return fmt.Sprintf("%s here. Considering %q in terms of delivery impact:", p.Name, topic)
	case "writing":
		return fmt.Sprintf("%s here. On how %q reads to the next maintainer:", p.Name, topic)
	default:
		return fmt.Sprintf("%s here. Regarding %q:", p.Name, topic)
	}
}

// body picks the most specific text available: the item's pre-seeded
// position for this agent, then the agent's synthesized summary, then a
// generic severity/category sentence.
func body(item agenda.Item, p Persona, syn *synthesis.Synthesis) string {
	if pos, ok := item.AgentPositions[p.Agent]; ok && pos != "" {
		return pos
	}
	if syn != nil {
		for _, a := range syn.AgentAnalyses {
			if a.Agent == p.Agent && a.Summary != "" {
				return a.Summary
			}
		}
	}
	return fmt.Sprintf("This is a %s severity %s issue and I think we should settle it before moving on.",
		item.Severity, item.Category)
}

// findReferences scans the text for any previously-used persona name and
// classifies the relationship by keyword.
func findReferences(text string, prior []Response) []Reference {
	lower := strings.ToLower(text)
	var refs []Reference
	seen := make(map[string]bool)
	for _, r := range prior {
		if r.Persona == "" || seen[r.Persona] {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(r.Persona)) {
			continue
		}
		seen[r.Persona] = true
		refs = append(refs, Reference{Name: r.Persona, Relationship: classify(lower)})
	}
	return refs
}

func classify(lowerText string) Relationship {
	switch {
	case strings.Contains(lowerText, "disagree"):
		return RelDisagrees
	case strings.Contains(lowerText, "building on"):
		return RelBuildsOn
	default:
		return RelAgrees
	}
}

// keyPoints returns the first two sentences longer than the minimum length.
func keyPoints(text string) []string {
	var points []string
	for _, raw := range strings.Split(text, ".") {
		sentence := strings.TrimSpace(raw)
		if len(sentence) <= minKeyPointLen {
			continue
		}
		points = append(points, sentence)
		if len(points) == 2 {
			break
		}
	}
	return points
}
