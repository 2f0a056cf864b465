// Package bot implements the fallback conversation engine: a stable
// per-session persona, bounded conversation memory, and a generation
// pipeline that turns user turns into short, human-like replies.
package bot

import (
	"fmt"
	"math/rand"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Persona is the fixed set of identity facts the agent presents for one
// session. Immutable once assigned.
type Persona struct {
	Name      string   `yaml:"name"`
	Age       int      `yaml:"age"`
	City      string   `yaml:"city"`
	Interests []string `yaml:"interests"`
	Tone      string   `yaml:"tone"`
}

// DefaultCatalog returns the built-in persona templates.
func DefaultCatalog() []Persona {
	return []Persona{
		{Name: "Meera", Age: 22, City: "Bangalore", Interests: []string{"music", "travel"}, Tone: "friendly, casual"},
		{Name: "Anaya", Age: 24, City: "Delhi", Interests: []string{"books", "coffee"}, Tone: "warm, curious"},
		{Name: "Ira", Age: 21, City: "Pune", Interests: []string{"movies", "food"}, Tone: "light, playful"},
		{Name: "Riya", Age: 26, City: "Chennai", Interests: []string{"art", "fitness"}, Tone: "calm, kind"},
		{Name: "Nisha", Age: 23, City: "Mumbai", Interests: []string{"nature", "photography"}, Tone: "soft, friendly"},
	}
}

// LoadCatalog reads persona templates from a YAML file.
func LoadCatalog(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}
	var catalog []Persona
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse persona catalog %s: %w", path, err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("persona catalog %s is empty", path)
	}
	for i, p := range catalog {
		if p.Name == "" {
			return nil, fmt.Errorf("persona catalog %s: entry %d has no name", path, i)
		}
	}
	return catalog, nil
}

// PersonaAssigner hands out one persona per session, chosen at random on
// first use and stable for the session's lifetime.
type PersonaAssigner struct {
	mu        sync.Mutex
	rng       *rand.Rand
	catalog   []Persona
	bySession map[string]Persona
}

// NewPersonaAssigner creates an assigner over the given catalog. The random
// source is injected so tests can force deterministic picks.
func NewPersonaAssigner(catalog []Persona, rng *rand.Rand) *PersonaAssigner {
	return &PersonaAssigner{
		rng:       rng,
		catalog:   catalog,
		bySession: make(map[string]Persona),
	}
}

// GetOrCreate returns the session's persona, picking one on first use.
func (a *PersonaAssigner) GetOrCreate(sessionID string) Persona {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.bySession[sessionID]; ok {
		return p
	}
	p := a.catalog[a.rng.Intn(len(a.catalog))]
	a.bySession[sessionID] = p
	return p
}

// Clear drops the session's cached persona.
func (a *PersonaAssigner) Clear(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bySession, sessionID)
}
