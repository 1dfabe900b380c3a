// Command frontend owns the audio devices, runs the selected STT/TTS
// providers, holds the conversational state machine, and serves the
// typed-command ingress. It never talks to the LLM or the fact store
// directly: every utterance is handed to the backend over the command
// channel, and the backend's reply is the only thing that moves the
// state machine or triggers speech.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/aisterr"
	"github.com/letrezdraw/AIST/internal/audio"
	"github.com/letrezdraw/AIST/internal/config"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/ipc/command"
	"github.com/letrezdraw/AIST/internal/ipc/textingress"
	"github.com/letrezdraw/AIST/internal/logging"
	"github.com/letrezdraw/AIST/internal/runctl"
	"github.com/letrezdraw/AIST/internal/state"
	"github.com/letrezdraw/AIST/internal/stt"
	"github.com/letrezdraw/AIST/internal/tts"
)

func main() {
	cfgPath := os.Getenv("AIST_CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "aist.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "frontend: config load failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Folder:         cfg.Logging.Folder,
		ConsoleEnabled: cfg.Logging.ConsoleEnabled,
		Component:      "frontend",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "frontend: logging init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	bus := eventbus.New()
	client := command.NewClient(fmt.Sprintf("127.0.0.1:%d", cfg.IPC.CommandPort), command.ClientOptions{})
	forwardLocalEventsToBackend(bus, client, logger)

	machine := state.New(bus)
	interlock := audio.NewInterlock(bus)

	device, err := audio.Open(16000, 24000)
	if err != nil {
		logger.Fatal("frontend: audio device open failed", zap.Error(err))
	}
	defer device.Close()
	if err := device.StartPlayback(); err != nil {
		logger.Fatal("frontend: playback start failed", zap.Error(err))
	}

	flag := runctl.NewFlag()
	ctx, cancel := runctl.WaitForShutdown(flag)
	defer cancel()

	ttsProvider, err := buildTTSProvider(cfg)
	if err != nil {
		bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{Component: string(aisterr.ComponentTTS), Status: "degraded", Detail: err.Error()})
		logger.Error("frontend: tts provider init failed", zap.Error(err))
	} else {
		bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{Component: string(aisterr.ComponentTTS), Status: "ok"})
	}
	ttsFramework := tts.NewFramework(ttsProvider, device, bus, logger, cfg.Assistant.SkillTimeout*6)
	unsubscribeTTS := ttsFramework.Start(ctx)
	defer unsubscribeTTS()

	bus.Subscribe(eventbus.TopicSTTTranscribed, func(payload any) {
		evt, ok := payload.(eventbus.STTTranscribed)
		if !ok {
			return
		}
		handleUtterance(ctx, client, machine, ttsFramework, evt.Text, logger)
	})

	sttProvider, err := buildSTTProvider(cfg, device, bus, interlock, logger)
	if err != nil {
		bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{Component: string(aisterr.ComponentSTT), Status: "degraded", Detail: err.Error()})
		logger.Fatal("frontend: stt provider init failed", zap.Error(err))
	}

	sttReady := make(chan struct{})
	go func() {
		if err := sttProvider.Run(ctx, machine, sttReady); err != nil && ctx.Err() == nil {
			logger.Error("frontend: stt provider exited", zap.Error(err))
		}
	}()
	go func() {
		<-sttReady
		bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{Component: string(aisterr.ComponentSTT), Status: "ok"})
	}()

	textListener, err := textingress.Bind(fmt.Sprintf(":%d", cfg.IPC.TextCommandPort), logger)
	if err != nil {
		logger.Fatal("frontend: text ingress bind failed", zap.Error(err))
	}
	defer textListener.Close()

	logger.Info("frontend: serving", zap.Int("text_command_port", cfg.IPC.TextCommandPort))
	err = textListener.Serve(ctx, func(line textingress.Line) {
		handleUtterance(ctx, client, machine, ttsFramework, line.Text, logger)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("frontend: text ingress exited", zap.Error(err))
	}
	logger.Info("frontend: shutdown complete")
}

// handleUtterance is the single place a transcribed-or-typed utterance
// turns into a backend round trip, a state transition, and (optionally)
// speech. Both the STT transcript path and the typed-command path funnel
// through this so their downstream behavior can never drift apart.
func handleUtterance(ctx context.Context, client *command.Client, machine *state.Machine, ttsFramework *tts.Framework, text string, logger *zap.Logger) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	resp := client.SendCommand(text, string(machine.Current()))
	shouldExit := machine.Apply(resp.Action)

	if resp.Speak != "" {
		if err := ttsFramework.Speak(ctx, resp.Speak); err != nil {
			logger.Warn("frontend: tts playback failed", zap.Error(err))
		}
	}

	if shouldExit {
		logger.Info("frontend: exit phrase recognized, shutting down")
		time.Sleep(1500 * time.Millisecond)
		os.Exit(0)
	}
}

func buildTTSProvider(cfg *config.Config) (tts.Provider, error) {
	switch cfg.TTS.Provider {
	case "sherpa":
		return tts.NewSherpaProvider(tts.SherpaConfig{
			Model:    cfg.TTS.SherpaModel,
			Voices:   cfg.TTS.SherpaVoices,
			Tokens:   cfg.TTS.SherpaTokens,
			DataDir:  cfg.TTS.SherpaDataDir,
			Lexicon:  cfg.TTS.SherpaLexicon,
			Language: cfg.Audio.Language,
			Speed:    float32(cfg.TTS.SherpaSpeed),
			Provider: "cpu",
		})
	default:
		return tts.NewPiperProvider(cfg.TTS.PiperBinaryPath, cfg.TTS.PiperVoiceFile, cfg.TTS.PiperLengthScale), nil
	}
}

func buildSTTProvider(cfg *config.Config, device *audio.Device, bus *eventbus.Bus, interlock *audio.Interlock, logger *zap.Logger) (stt.Provider, error) {
	standingPhrases := make([]string, 0, len(cfg.Assistant.ActivationPhrases)+len(cfg.Assistant.DeactivationPhrases)+len(cfg.Assistant.ExitPhrases))
	standingPhrases = append(standingPhrases, cfg.Assistant.ActivationPhrases...)
	standingPhrases = append(standingPhrases, cfg.Assistant.DeactivationPhrases...)
	standingPhrases = append(standingPhrases, cfg.Assistant.ExitPhrases...)

	switch cfg.STT.Provider {
	case "vosk":
		return stt.NewVoskStyleProvider(stt.VoskStyleConfig{
			Encoder:             cfg.STT.SherpaEncoder,
			Decoder:             cfg.STT.SherpaDecoder,
			Joiner:              cfg.STT.SherpaJoiner,
			Tokens:              cfg.STT.SherpaTokens,
			SampleRate:          device.CaptureRate(),
			ConfidenceThreshold: cfg.Audio.ConfidenceThreshold,
			StandingPhrases:     standingPhrases,
		}, device, bus, interlock, logger)
	default:
		var noiseProfile []float32
		if cfg.Audio.UseNoiseCancellation && cfg.Audio.NoiseProfilePath != "" {
			if profile, err := stt.LoadNoiseProfile(cfg.Audio.NoiseProfilePath); err == nil {
				noiseProfile = profile
			} else {
				logger.Warn("frontend: noise profile load failed", zap.Error(err))
			}
		}
		return stt.NewWhisperStyleProvider(stt.WhisperStyleConfig{
			ModelPath:            cfg.STT.WhisperModel,
			Language:             cfg.Audio.Language,
			SampleRate:           device.CaptureRate(),
			EnergyThreshold:      cfg.Audio.WhisperEnergyThresh,
			PhraseTimeout:        cfg.Audio.PhraseTimeout,
			UseNoiseCancellation: cfg.Audio.UseNoiseCancellation,
			NoiseProfile:         noiseProfile,
		}, device, bus, interlock, logger)
	}
}

// forwardLocalEventsToBackend relays the subset of local bus events the
// GUI needs to see onto the backend's wire event bus, via the
// command channel's "event" request type.
func forwardLocalEventsToBackend(bus *eventbus.Bus, client *command.Client, logger *zap.Logger) {
	for _, topic := range []eventbus.Topic{
		eventbus.TopicStateChanged,
		eventbus.TopicInitStatus,
		eventbus.TopicVADStatusChange,
		eventbus.TopicSTTTranscribed,
		eventbus.TopicTTSStarted,
		eventbus.TopicTTSFinished,
	} {
		topic := topic
		bus.Subscribe(topic, func(payload any) {
			if err := client.SendEvent(string(topic), payload); err != nil {
				logger.Debug("frontend: event forward failed", zap.String("topic", string(topic)), zap.Error(err))
			}
		})
	}
}
