package skills

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Discover scans dir for subdirectories carrying both a manifest.json and
// a matching entry in Builtins, instantiates each, and registers its
// intents into reg. A directory without a manifest.json is skipped
// silently; a malformed manifest, or one with no matching Builtins entry,
// is logged and skipped. None of these aborts startup.
// It returns the number of skills successfully loaded.
func Discover(dir string, reg *Registry, logger *zap.Logger) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("skills: cannot read skills directory", zap.String("dir", dir), zap.Error(err))
		return 0
	}

	loaded := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillID := entry.Name()
		manifestPath := filepath.Join(dir, skillID, "manifest.json")

		data, err := os.ReadFile(manifestPath)
		if err != nil {
			continue // no manifest: not a skill directory
		}
		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			logger.Warn("skills: malformed manifest", zap.String("skill_id", skillID), zap.Error(err))
			continue
		}

		factory, ok := Builtins[skillID]
		if !ok {
			logger.Warn("skills: manifest present but no compiled skill for id", zap.String("skill_id", skillID))
			continue
		}

		instance := factory(skillID)
		instance.RegisterIntents(reg.Register)
		loaded++
		logger.Info("skills: loaded", zap.String("skill_id", skillID), zap.String("version", manifest.Version))
	}
	return loaded
}
