// Package crashtest exists only to exercise the sandbox's crash and
// timeout handling paths: a skill that panics or hangs must never take
// down the backend. It has no init(), so importing it registers nothing;
// only RegisterWhenEnabled adds it to Builtins. No process calls
// RegisterWhenEnabled, and assistant.enable_test_skills is loaded into
// config but acted on by nothing, so the skill is never registered.
package crashtest

import (
	"time"

	"github.com/letrezdraw/AIST/internal/skills"
)

const ID = "crash_test"

type skill struct {
	skillID string
}

// New constructs the crash-test skill.
func New(skillID string) skills.Skill {
	return &skill{skillID: skillID}
}

// RegisterWhenEnabled adds this skill to Builtins under ID.
func RegisterWhenEnabled() {
	skills.RegisterBuiltin(ID, New)
}

func (s *skill) RegisterIntents(register func(skills.Intent)) {
	register(skills.Intent{
		Name:        "crash_now",
		SkillID:     s.skillID,
		Phrases:     []string{"trigger a crash test", "run the crash test"},
		Description: "Panics immediately, to verify the sandbox survives a crashed skill.",
		Handler:     s.handleCrash,
	})
	register(skills.Intent{
		Name:        "hang_now",
		SkillID:     s.skillID,
		Phrases:     []string{"trigger a hang test", "run the timeout test"},
		Description: "Sleeps far longer than any configured skill timeout, to verify the sandbox kills it.",
		Handler:     s.handleHang,
	})
}

func (s *skill) handleCrash(_ map[string]string) (string, error) {
	panic("crashtest: deliberate panic")
}

func (s *skill) handleHang(_ map[string]string) (string, error) {
	time.Sleep(10 * time.Minute)
	return "should never be reached", nil
}
