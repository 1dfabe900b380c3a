package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/letrezdraw/AIST/internal/aisterr"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "aist.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsWhenKeysAbsent(t *testing.T) {
	path := writeTempConfig(t, "ipc:\n  command_port: 5555\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IPC.EventBusPort != 5556 {
		t.Fatalf("EventBusPort = %d, want default 5556", cfg.IPC.EventBusPort)
	}
	if cfg.Assistant.FuzzyMatchThreshold != 85 {
		t.Fatalf("FuzzyMatchThreshold = %d, want default 85", cfg.Assistant.FuzzyMatchThreshold)
	}
	if cfg.Assistant.SkillTimeout != 5*time.Second {
		t.Fatalf("SkillTimeout = %v, want default 5s", cfg.Assistant.SkillTimeout)
	}
}

func TestLoadReadsNestedDottedKeys(t *testing.T) {
	path := writeTempConfig(t, `
ipc:
  command_port: 6000
models:
  llm:
    path: /models/llama.gguf
    gpu_layers: 20
  stt:
    provider: vosk
    vosk_model_path: /models/vosk-en
assistant:
  fuzzy_match_threshold: 90
  activation_phrases:
    - "hey computer"
    - "wake up"
audio:
  stt:
    confidence_threshold: 0.5
    whisper_vad:
      phrase_timeout: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IPC.CommandPort != 6000 {
		t.Fatalf("CommandPort = %d, want 6000", cfg.IPC.CommandPort)
	}
	if cfg.LLM.Path != "/models/llama.gguf" || cfg.LLM.GPULayers != 20 {
		t.Fatalf("LLM section not parsed: %+v", cfg.LLM)
	}
	if cfg.STT.Provider != "vosk" || cfg.STT.VoskModelPath != "/models/vosk-en" {
		t.Fatalf("STT section not parsed: %+v", cfg.STT)
	}
	if cfg.Assistant.FuzzyMatchThreshold != 90 {
		t.Fatalf("FuzzyMatchThreshold = %d, want 90", cfg.Assistant.FuzzyMatchThreshold)
	}
	wantPhrases := []string{"hey computer", "wake up"}
	if len(cfg.Assistant.ActivationPhrases) != len(wantPhrases) {
		t.Fatalf("ActivationPhrases = %v, want %v", cfg.Assistant.ActivationPhrases, wantPhrases)
	}
	if cfg.Audio.ConfidenceThreshold != 0.5 {
		t.Fatalf("ConfidenceThreshold = %v, want 0.5", cfg.Audio.ConfidenceThreshold)
	}
	if cfg.Audio.PhraseTimeout != 2*time.Second {
		t.Fatalf("PhraseTimeout = %v, want 2s", cfg.Audio.PhraseTimeout)
	}
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	var cfgErr *aisterr.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %T, want *aisterr.ConfigError", err)
	}
}
