// Package memoryskill wraps internal/factstore behind the skill ABI,
// supplementing original_source/aist/skills/memory_skill with the same
// store/recall intent pair.
package memoryskill

import (
	"context"
	"fmt"

	"github.com/letrezdraw/AIST/internal/factstore"
	"github.com/letrezdraw/AIST/internal/skills"
)

const ID = "memory"

// FactStore is the subset of *factstore.Store this skill needs.
type FactStore interface {
	StoreFact(ctx context.Context, content, source string) error
	RetrieveRelevantFacts(ctx context.Context, query string, topN int) ([]factstore.Fact, error)
}

type skill struct {
	skillID string
	store   FactStore
}

// New constructs the memory skill bound to store.
func New(skillID string, store FactStore) skills.Skill {
	return &skill{skillID: skillID, store: store}
}

// RegisterWithStore returns a skills.Factory closing over store, for use
// with skills.RegisterBuiltin at process wiring time.
func RegisterWithStore(store FactStore) skills.Factory {
	return func(skillID string) skills.Skill {
		return New(skillID, store)
	}
}

func (s *skill) RegisterIntents(register func(skills.Intent)) {
	register(skills.Intent{
		Name:    "store_memory",
		SkillID: s.skillID,
		Phrases: []string{
			"remember that",
			"store this information",
			"remind me that",
		},
		Parameters: []skills.Parameter{
			{Name: "fact", Description: "The specific piece of information to be stored in memory."},
		},
		Description: "Stores a fact for later recall.",
		Handler:     s.handleStoreMemory,
	})
	register(skills.Intent{
		Name:    "recall_memory",
		SkillID: s.skillID,
		Phrases: []string{
			"what do you know about",
			"what do you remember about",
			"tell me about",
		},
		Parameters: []skills.Parameter{
			{Name: "query", Description: "The topic to search for in memory."},
		},
		Description: "Recalls a previously stored fact matching a topic.",
		Handler:     s.handleRecallMemory,
	})
}

func (s *skill) handleStoreMemory(params map[string]string) (string, error) {
	fact := params["fact"]
	if fact == "" {
		return "I didn't quite catch what you wanted me to remember.", nil
	}
	if err := s.store.StoreFact(context.Background(), fact, s.skillID); err != nil {
		return "", err
	}
	return "Okay, I'll remember that.", nil
}

func (s *skill) handleRecallMemory(params map[string]string) (string, error) {
	query := params["query"]
	if query == "" {
		return "What would you like to know about?", nil
	}
	results, err := s.store.RetrieveRelevantFacts(context.Background(), query, 1)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("I don't seem to have any memories about %s.", query), nil
	}
	return fmt.Sprintf("I remember this about %s: %s", query, results[0].Content), nil
}
