// Package skills holds the value types shared by the dispatcher, the
// sandbox, and every skill implementation: Intent, Manifest, and the
// Registry that indexes them by name. There is no reflection anywhere in
// this package — every skill is a statically compiled Factory registered
// in Builtins, discovered only if its manifest directory is present.
package skills

import (
	"fmt"
	"sync"
)

// Parameter describes one named argument a handler accepts, surfaced to
// the LLM router's system prompt so it knows how to fill params.
type Parameter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Handler executes one skill invocation given a parameter mapping,
// returning the text to speak or an error.
type Handler func(params map[string]string) (string, error)

// Intent is registered by a skill at startup: a name, the phrases that
// seed the dispatcher's fast path, the handler to invoke, and its
// parameter shape.
type Intent struct {
	Name        string
	SkillID     string
	Phrases     []string
	Parameters  []Parameter
	Description string
	Handler     Handler
}

// Manifest is the `{name, version, description}` document every skill
// directory must carry for its statically-linked Factory to be enabled.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Skill is the ABI every skill instance implements: registered under a
// skill_id so its handlers know their own identity, then asked to
// register the intents it wants reachable from the dispatcher.
type Skill interface {
	RegisterIntents(register func(Intent))
}

// Factory constructs a fresh Skill instance, given the skill_id it was
// loaded under.
type Factory func(skillID string) Skill

// Registry indexes Intents by name, populated by Discover at backend
// startup from the statically-linked Builtins map.
type Registry struct {
	mu      sync.RWMutex
	intents map[string]Intent
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{intents: make(map[string]Intent)}
}

// Register adds intent, keyed uniquely by name. A duplicate name
// overwrites the previous registration, so the intent registered last
// wins.
func (r *Registry) Register(intent Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents[intent.Name] = intent
}

// Lookup returns the Intent registered under name, if any.
func (r *Registry) Lookup(name string) (Intent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intent, ok := r.intents[name]
	return intent, ok
}

// All returns every registered Intent, in no particular order.
func (r *Registry) All() []Intent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Intent, 0, len(r.intents))
	for _, intent := range r.intents {
		out = append(out, intent)
	}
	return out
}

// Count reports how many intents are registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.intents)
}

// Builtins maps a skill_id to the Factory that constructs it. Populated
// by each builtin skill package's init(), consulted by Discover.
var Builtins = make(map[string]Factory)

// RegisterBuiltin adds factory under id. Called from the init() of each
// internal/skills/builtin/* package.
func RegisterBuiltin(id string, factory Factory) {
	if _, exists := Builtins[id]; exists {
		panic(fmt.Sprintf("skills: duplicate builtin registration for %q", id))
	}
	Builtins[id] = factory
}
