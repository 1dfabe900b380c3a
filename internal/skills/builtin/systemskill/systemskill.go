// Package systemskill implements basic OS-level commands: opening an
// application by name. Supplements the original_source system_skill,
// which dispatched on sys.platform; the Go equivalent dispatches on
// runtime.GOOS.
package systemskill

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/letrezdraw/AIST/internal/skills"
)

const ID = "system"

func init() {
	skills.RegisterBuiltin(ID, New)
}

type skill struct {
	skillID string
}

func New(skillID string) skills.Skill {
	return &skill{skillID: skillID}
}

func (s *skill) RegisterIntents(register func(skills.Intent)) {
	register(skills.Intent{
		Name:    "open_application",
		SkillID: s.skillID,
		Phrases: []string{
			"open application",
			"launch application",
			"start application",
			"open",
		},
		Parameters: []skills.Parameter{
			{Name: "app_name", Description: "The name of the application to open (e.g. 'firefox', 'gedit')."},
		},
		Description: "Opens a named application.",
		Handler:     s.handleOpenApplication,
	})
}

func (s *skill) handleOpenApplication(params map[string]string) (string, error) {
	appName := params["app_name"]
	if appName == "" {
		return "Which application would you like to open?", nil
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", appName)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", appName)
	default:
		cmd = exec.Command("xdg-open", appName)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Sprintf("Sorry, I couldn't find an application named %s.", appName), nil
	}
	return fmt.Sprintf("I've opened %s for you.", appName), nil
}
