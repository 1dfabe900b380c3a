// Package timeskill implements the "what time is it" builtin, the
// simplest possible skill: no parameters, no external dependency.
package timeskill

import (
	"time"

	"github.com/letrezdraw/AIST/internal/skills"
)

const ID = "time"

func init() {
	skills.RegisterBuiltin(ID, New)
}

type skill struct {
	skillID string
}

// New constructs the time skill under skillID.
func New(skillID string) skills.Skill {
	return &skill{skillID: skillID}
}

func (s *skill) RegisterIntents(register func(skills.Intent)) {
	register(skills.Intent{
		Name:    "get_current_time",
		SkillID: s.skillID,
		Phrases: []string{
			"what time is it",
			"what's the current time",
			"tell me the time",
		},
		Description: "Reports the current local time.",
		Handler:     s.handleGetTime,
	})
}

func (s *skill) handleGetTime(_ map[string]string) (string, error) {
	now := time.Now()
	return "The current time is " + now.Format("3:04 PM") + ".", nil
}
