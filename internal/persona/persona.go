// Package persona holds the display identities used to voice agent responses
// and the responder that simulates each agent's reaction to an agenda item.
package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/revboard-dev/revboard/internal/synthesis"
)

// Persona is the display identity for one agent type.
type Persona struct {
	Agent synthesis.AgentType `yaml:"agent" json:"agent"`
	Name  string              `yaml:"name" json:"name"`
	Title string              `yaml:"title" json:"title"`
	Icon  string              `yaml:"icon" json:"icon"`
	// Type keys the responder's intro phrasing: "technical", "quality",
	// "product" or "writing".
	Type string `yaml:"type" json:"type"`
}

// Roster maps agent types to their personas.
type Roster map[synthesis.AgentType]Persona

// defaults are used when a project ships no persona descriptors, and as the
// fallback for any agent type missing from a loaded roster.
var defaults = Roster{
	synthesis.AgentArchitect:  {Agent: synthesis.AgentArchitect, Name: "Astrid", Title: "System Architect", Icon: "🏛", Type: "technical"},
	synthesis.AgentDev:        {Agent: synthesis.AgentDev, Name: "Devlin", Title: "Senior Developer", Icon: "💻", Type: "technical"},
	synthesis.AgentTEA:        {Agent: synthesis.AgentTEA, Name: "Tessa", Title: "Test Engineer", Icon: "🧪", Type: "quality"},
	synthesis.AgentAnalyst:    {Agent: synthesis.AgentAnalyst, Name: "Arlo", Title: "Business Analyst", Icon: "📊", Type: "product"},
	synthesis.AgentTechWriter: {Agent: synthesis.AgentTechWriter, Name: "Wren", Title: "Technical Writer", Icon: "📝", Type: "writing"},
	synthesis.AgentPM:         {Agent: synthesis.AgentPM, Name: "Priya", Title: "Product Manager", Icon: "🧭", Type: "product"},
}

// Get returns the persona for an agent type, falling back to the built-in
// default when the roster has no entry.
func (r Roster) Get(agent synthesis.AgentType) Persona {
	if p, ok := r[agent]; ok {
		return p
	}
	if p, ok := defaults[agent]; ok {
		return p
	}
	// Unknown agent types still get a voice.
	return Persona{Agent: agent, Name: string(agent), Title: string(agent), Type: "technical"}
}

// Defaults returns a copy of the built-in roster.
func Defaults() Roster {
	r := make(Roster, len(defaults))
	for k, v := range defaults {
		r[k] = v
	}
	return r
}

// Load reads persona descriptor YAML files from a directory. Files are
// loaded in parallel; a missing directory yields the built-in defaults.
func Load(dir string) (Roster, error) {
	if dir == "" {
		return Defaults(), nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read personas dir: %w", err)
	}

	roster := Defaults()
	var mu sync.Mutex
	var g errgroup.Group

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read persona %s: %w", path, err)
			}
			var p Persona
			if err := yaml.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("parse persona %s: %w", path, err)
			}
			if p.Agent == "" {
				p.Agent = synthesis.AgentType(strings.TrimSuffix(name, ".yaml"))
			}
			mu.Lock()
			roster[p.Agent] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return roster, nil
}
