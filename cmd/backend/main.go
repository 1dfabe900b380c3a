// Command backend hosts the LLM router, skill registry/sandbox,
// dispatcher, conversation memory, and fact store. It binds the command
// channel the frontend talks to, and binds the wire event bus and log
// broadcast bus every other process subscribes to.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/aisterr"
	"github.com/letrezdraw/AIST/internal/config"
	"github.com/letrezdraw/AIST/internal/conversation"
	"github.com/letrezdraw/AIST/internal/dispatcher"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/factstore"
	"github.com/letrezdraw/AIST/internal/ipc/command"
	"github.com/letrezdraw/AIST/internal/llm"
	"github.com/letrezdraw/AIST/internal/logging"
	"github.com/letrezdraw/AIST/internal/observability"
	"github.com/letrezdraw/AIST/internal/runctl"
	"github.com/letrezdraw/AIST/internal/sandbox"
	"github.com/letrezdraw/AIST/internal/skills"
	"github.com/letrezdraw/AIST/internal/skills/builtin/memoryskill"

	_ "github.com/letrezdraw/AIST/internal/skills/builtin/crashtest"
	_ "github.com/letrezdraw/AIST/internal/skills/builtin/systemskill"
	_ "github.com/letrezdraw/AIST/internal/skills/builtin/timeskill"
)

func main() {
	cfgPath := os.Getenv("AIST_CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "aist.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: config load failed: %v\n", err)
		os.Exit(1)
	}

	bus := eventbus.New()

	wireBus, err := eventbus.Bind(fmt.Sprintf(":%d", cfg.IPC.EventBusPort))
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: cannot bind event bus port: %v\n", err)
		os.Exit(1)
	}
	defer wireBus.Close()
	rebroadcastBusEvents(bus, wireBus)

	logBus, err := eventbus.Bind(fmt.Sprintf(":%d", cfg.IPC.LogBroadcastPort))
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: cannot bind log broadcast port: %v\n", err)
		os.Exit(1)
	}
	defer logBus.Close()

	logger, err := logging.New(logging.Options{
		Folder:         cfg.Logging.Folder,
		ConsoleEnabled: cfg.Logging.ConsoleEnabled,
		Component:      "backend",
		Broadcast:      func(line string) { logBus.PublishRaw("log.line", []byte(line)) },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: logging init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	skillWorkerPath, err := os.Executable()
	if err == nil {
		sandbox.WorkerPath = filepath.Join(filepath.Dir(skillWorkerPath), "skillworker")
	}

	metrics := observability.NewMetrics("aist_backend")

	provider, err := buildLLMProvider(cfg, metrics)
	llmAvailable := false
	if err != nil {
		publishInitStatus(bus, aisterr.ComponentLLM, err)
		logger.Error("backend: llm provider init failed", zap.Error(err))
	} else {
		healthCtx, healthCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := provider.HealthCheck(healthCtx); err != nil {
			publishInitStatus(bus, aisterr.ComponentLLM, err)
			logger.Warn("backend: llm health check failed, degrading to fast-path-only", zap.Error(err))
		} else {
			llmAvailable = true
			bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{Component: "llm", Status: "ok"})
		}
		healthCancel()
	}

	facts, err := factstore.Open(cfg.Assistant.FactStorePath)
	if err != nil {
		logger.Fatal("backend: fact store open failed", zap.Error(err))
	}
	defer facts.Close()

	skills.RegisterBuiltin(memoryskill.ID, memoryskill.RegisterWithStore(facts))
	registry := skills.NewRegistry()
	loaded := skills.Discover(cfg.Assistant.SkillsDir, registry, logger)
	logger.Info("backend: skills loaded", zap.Int("count", loaded))
	bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{Component: string(aisterr.ComponentSkills), Status: "ok", Detail: fmt.Sprintf("%d skills loaded", loaded)})

	history := conversation.New(cfg.Assistant.ConversationExchanges)

	disp := dispatcher.New(dispatcher.Config{
		ActivationPhrases:   cfg.Assistant.ActivationPhrases,
		DeactivationPhrases: cfg.Assistant.DeactivationPhrases,
		ExitPhrases:         cfg.Assistant.ExitPhrases,
		FuzzyMatchThreshold: cfg.Assistant.FuzzyMatchThreshold,
		SkillTimeout:        cfg.Assistant.SkillTimeout,
		LLMTemperatureChat:  cfg.LLM.Temperature,
		LLMMaxTokensChat:    cfg.LLM.MaxNewToks,
		LLMMaxTokensRoute:   256,
		LLMAvailable:        llmAvailable,
	}, registry, provider, facts, history, logger, metrics)

	go serveMetrics(logger)

	commandServer, err := command.NewServer(fmt.Sprintf(":%d", cfg.IPC.CommandPort), disp, history, bus, logger)
	if err != nil {
		logger.Fatal("backend: command server bind failed", zap.Error(err))
	}
	defer commandServer.Close()

	flag := runctl.NewFlag()
	ctx, cancel := runctl.WaitForShutdown(flag)
	defer cancel()

	metrics.ObserveLifecycleEvent("backend_started")
	bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{Component: "backend", Status: "ok"})
	logger.Info("backend: serving", zap.Int("command_port", cfg.IPC.CommandPort), zap.Int("event_bus_port", cfg.IPC.EventBusPort))

	if err := commandServer.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Error("backend: command server exited", zap.Error(err))
	}
	logger.Info("backend: shutdown complete")
}

// buildLLMProvider selects between the Ollama and llama.cpp providers per
// the models.llm.path convention: an "ollama://<model>"
// reference dials a local Ollama server, anything else is treated as a
// path to a GGUF file run through a llama.cpp-compatible CLI.
func buildLLMProvider(cfg *config.Config, metrics *observability.Metrics) (llm.Provider, error) {
	if strings.HasPrefix(cfg.LLM.Path, "ollama://") {
		model := strings.TrimPrefix(cfg.LLM.Path, "ollama://")
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://127.0.0.1:11434"
		}
		return llm.NewOllamaProvider(host, model, metrics)
	}
	cliPath := os.Getenv("AIST_LLAMA_CLI_PATH")
	if cliPath == "" {
		cliPath = "llama-cli"
	}
	return llm.NewLlamaCppProvider(cliPath, cfg.LLM.Path, cfg.LLM.ContextLen), nil
}

func publishInitStatus(bus *eventbus.Bus, component aisterr.Component, err error) {
	bus.Publish(eventbus.TopicInitStatus, eventbus.InitStatus{
		Component: string(component),
		Status:    "degraded",
		Detail:    err.Error(),
	})
}

// rebroadcastBusEvents mirrors every in-process bus event onto the wire
// bus so frontend/gui subscribers see state changes, init status, and
// intent matches without the backend importing their transport concerns.
func rebroadcastBusEvents(bus *eventbus.Bus, wireBus *eventbus.WireBus) {
	topics := []eventbus.Topic{
		eventbus.TopicStateChanged,
		eventbus.TopicInitStatus,
		eventbus.TopicIntentMatched,
		eventbus.TopicVADStatusChange,
		eventbus.TopicSTTTranscribed,
		eventbus.TopicTTSStarted,
		eventbus.TopicTTSFinished,
	}
	for _, topic := range topics {
		topic := topic
		bus.Subscribe(topic, func(payload any) {
			_ = wireBus.Publish(topic, payload)
		})
	}
}

func serveMetrics(logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	if err := http.ListenAndServe("127.0.0.1:9090", mux); err != nil {
		logger.Warn("backend: metrics server stopped", zap.Error(err))
	}
}
