package config

import (
	"time"

	"github.com/letrezdraw/AIST/internal/aisterr"
)

// Config is the fully-typed view of the YAML document. All four
// processes load the same file and read only the fields relevant to
// them.
type Config struct {
	IPC struct {
		CommandPort      int
		EventBusPort     int
		LogBroadcastPort int
		TextCommandPort  int
	}

	LLM struct {
		Path        string
		GPULayers   int
		ContextLen  int
		MaxNewToks  int
		Temperature float64
	}

	TTS struct {
		Provider        string
		PiperBinaryPath string
		PiperVoiceFile  string
		PiperLengthScale float64
		SherpaModel     string
		SherpaVoices    string
		SherpaTokens    string
		SherpaDataDir   string
		SherpaLexicon   string
		SherpaSpeed     float64
	}

	STT struct {
		Provider      string
		WhisperModel  string
		VoskModelPath string
		WhisperDevice string

		SherpaEncoder string
		SherpaDecoder string
		SherpaJoiner  string
		SherpaTokens  string
	}

	GUI struct {
		ListenAddr     string
		AllowAnyOrigin bool
	}

	Assistant struct {
		ActivationPhrases     []string
		DeactivationPhrases  []string
		ExitPhrases          []string
		FuzzyMatchThreshold  int
		SkillTimeout         time.Duration
		ConversationExchanges int
		EnableTestSkills     bool
		SkillsDir            string
		FactStorePath        string
	}

	Audio struct {
		EnergyThreshold      float64
		ConfidenceThreshold  float64
		PauseThreshold       time.Duration
		ListenTimeout        time.Duration
		PhraseTimeout        time.Duration
		WhisperEnergyThresh  float64
		UseNoiseCancellation bool
		NoiseProfilePath     string
		UseDynamicEnergy     bool
		Language             string
	}

	Hotkeys struct {
		Quit string
	}

	Logging struct {
		Folder         string
		ConsoleEnabled bool
	}
}

// Load reads path and derives a typed Config. Missing required values fall
// back to the documented defaults; a malformed file is a fatal
// ConfigError.
func Load(path string) (*Config, error) {
	tree, err := LoadTree(path)
	if err != nil {
		return nil, &aisterr.ConfigError{Path: path, Err: err}
	}
	return FromTree(tree), nil
}

// FromTree derives a typed Config from an already-parsed Tree, applying
// each key's documented default when it is absent.
func FromTree(t *Tree) *Config {
	c := &Config{}

	c.IPC.CommandPort = t.Int("ipc.command_port", 5555)
	c.IPC.EventBusPort = t.Int("ipc.event_bus_port", 5556)
	c.IPC.LogBroadcastPort = t.Int("ipc.log_broadcast_port", 5557)
	c.IPC.TextCommandPort = t.Int("ipc.text_command_port", 5558)

	c.LLM.Path = t.String("models.llm.path", "")
	c.LLM.GPULayers = t.Int("models.llm.gpu_layers", 0)
	c.LLM.ContextLen = t.Int("models.llm.context_length", 4096)
	c.LLM.MaxNewToks = t.Int("models.llm.max_new_tokens", 256)
	c.LLM.Temperature = t.Float("models.llm.temperature", 0.7)

	c.TTS.Provider = t.String("models.tts.provider", "piper")
	c.TTS.PiperBinaryPath = t.String("models.tts.piper_binary_path", "piper")
	c.TTS.PiperVoiceFile = t.String("models.tts.piper_voice_model", "")
	c.TTS.PiperLengthScale = t.Float("models.tts.piper_length_scale", 1.0)
	c.TTS.SherpaModel = t.String("models.tts.sherpa_model", "")
	c.TTS.SherpaVoices = t.String("models.tts.sherpa_voices", "")
	c.TTS.SherpaTokens = t.String("models.tts.sherpa_tokens", "")
	c.TTS.SherpaDataDir = t.String("models.tts.sherpa_data_dir", "")
	c.TTS.SherpaLexicon = t.String("models.tts.sherpa_lexicon", "")
	c.TTS.SherpaSpeed = t.Float("models.tts.sherpa_speed", 1.0)

	c.STT.Provider = t.String("models.stt.provider", "whisper")
	c.STT.WhisperModel = t.String("models.stt.whisper_model_name", "base")
	c.STT.VoskModelPath = t.String("models.stt.vosk_model_path", "")
	c.STT.WhisperDevice = t.String("models.stt.whisper_device", "cpu")
	c.STT.SherpaEncoder = t.String("models.stt.sherpa_encoder", "")
	c.STT.SherpaDecoder = t.String("models.stt.sherpa_decoder", "")
	c.STT.SherpaJoiner = t.String("models.stt.sherpa_joiner", "")
	c.STT.SherpaTokens = t.String("models.stt.sherpa_tokens", "")

	c.Assistant.ActivationPhrases = t.StringSlice("assistant.activation_phrases", []string{"hey assist", "okay assist"})
	c.Assistant.DeactivationPhrases = t.StringSlice("assistant.deactivation_phrases", []string{"go to sleep", "stop listening"})
	c.Assistant.ExitPhrases = t.StringSlice("assistant.exit_phrases", []string{"assist exit", "goodbye assist"})
	c.Assistant.FuzzyMatchThreshold = t.Int("assistant.fuzzy_match_threshold", 85)
	c.Assistant.SkillTimeout = t.Duration("assistant.skill_timeout", 5*time.Second)
	c.Assistant.ConversationExchanges = t.Int("assistant.conversation_history_length", 5)
	c.Assistant.EnableTestSkills = t.Bool("assistant.enable_test_skills", false)
	c.Assistant.SkillsDir = t.String("assistant.skills_dir", "skills")
	c.Assistant.FactStorePath = t.String("assistant.fact_store_path", "aist_memory.db")

	c.Audio.EnergyThreshold = t.Float("audio.stt.energy_threshold", 300.0)
	c.Audio.ConfidenceThreshold = t.Float("audio.stt.confidence_threshold", 0.85)
	c.Audio.PauseThreshold = t.Duration("audio.stt.pause_threshold", 800*time.Millisecond)
	c.Audio.ListenTimeout = t.Duration("audio.stt.listen_timeout", 10*time.Second)
	c.Audio.PhraseTimeout = t.Duration("audio.stt.whisper_vad.phrase_timeout", 1*time.Second)
	c.Audio.WhisperEnergyThresh = t.Float("audio.stt.whisper_vad.energy_threshold", 300.0)
	c.Audio.UseNoiseCancellation = t.Bool("audio.stt.use_noise_cancellation", false)
	c.Audio.NoiseProfilePath = t.String("audio.stt.noise_profile_path", "")
	c.Audio.UseDynamicEnergy = t.Bool("audio.stt.use_dynamic_energy", true)
	c.Audio.Language = t.String("audio.stt.language", "en")

	c.GUI.ListenAddr = t.String("gui.listen_addr", "127.0.0.1:8090")
	c.GUI.AllowAnyOrigin = t.Bool("gui.allow_any_origin", false)

	c.Hotkeys.Quit = t.String("hotkeys.quit", "ctrl+alt+q")

	c.Logging.Folder = t.String("logging.folder", "logs")
	c.Logging.ConsoleEnabled = t.Bool("logging.console_enabled", true)

	return c
}
