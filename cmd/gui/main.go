// Command gui serves the HTTP/websocket bridge a graphical shell polls
// to visualize assistant state and component health. It owns no audio
// and no LLM access; it only mirrors the backend's wire event bus and
// forwards typed commands to the frontend's text ingress.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/config"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/guiapi"
	"github.com/letrezdraw/AIST/internal/ipc/textingress"
	"github.com/letrezdraw/AIST/internal/logging"
	"github.com/letrezdraw/AIST/internal/runctl"
)

func main() {
	cfgPath := os.Getenv("AIST_CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "aist.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gui: config load failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Folder:         cfg.Logging.Folder,
		ConsoleEnabled: cfg.Logging.ConsoleEnabled,
		Component:      "gui",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gui: logging init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	flag := runctl.NewFlag()
	ctx, cancel := runctl.WaitForShutdown(flag)
	defer cancel()

	server := guiapi.New(logger, cfg.GUI.AllowAnyOrigin)
	localBus := eventbus.New()
	server.BridgeFrom(localBus)

	eventBusAddr := fmt.Sprintf("127.0.0.1:%d", cfg.IPC.EventBusPort)
	go subscribeWireBus(ctx, eventBusAddr, localBus, logger)

	mux := http.NewServeMux()
	mux.Handle("/", server.Router())
	mux.HandleFunc("/v1/command", func(w http.ResponseWriter, r *http.Request) {
		handleCommandPush(w, r, cfg, logger)
	})

	httpSrv := &http.Server{
		Addr:    cfg.GUI.ListenAddr,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		httpSrv.Close()
	}()

	logger.Info("gui: serving", zap.String("listen_addr", cfg.GUI.ListenAddr), zap.String("event_bus_addr", eventBusAddr))
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("gui: http server exited", zap.Error(err))
	}
	logger.Info("gui: shutdown complete")
}

// subscribeWireBus dials the backend's event bus and decodes every frame
// back into the typed payload guiapi.Server.BridgeFrom expects, retrying
// the dial with backoff if the backend isn't up yet or the connection
// drops.
func subscribeWireBus(ctx context.Context, addr string, localBus *eventbus.Bus, logger *zap.Logger) {
	backoff := 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := eventbus.Subscribe(ctx, addr, "", func(topic eventbus.Topic, payload []byte) {
			decodeAndRepublish(topic, payload, localBus, logger)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("gui: wire bus subscribe dropped, retrying", zap.Error(err), zap.Duration("backoff", backoff))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
}

func decodeAndRepublish(topic eventbus.Topic, payload []byte, bus *eventbus.Bus, logger *zap.Logger) {
	switch topic {
	case eventbus.TopicStateChanged:
		var evt eventbus.StateChanged
		if json.Unmarshal(payload, &evt) == nil {
			bus.Publish(topic, evt)
		}
	case eventbus.TopicInitStatus:
		var evt eventbus.InitStatus
		if json.Unmarshal(payload, &evt) == nil {
			bus.Publish(topic, evt)
		}
	case eventbus.TopicIntentMatched:
		var evt eventbus.IntentMatched
		if json.Unmarshal(payload, &evt) == nil {
			bus.Publish(topic, evt)
		}
	case eventbus.TopicVADStatusChange:
		var evt eventbus.VADStatusChanged
		if json.Unmarshal(payload, &evt) == nil {
			bus.Publish(topic, evt)
		}
	case eventbus.TopicSTTTranscribed:
		var evt eventbus.STTTranscribed
		if json.Unmarshal(payload, &evt) == nil {
			bus.Publish(topic, evt)
		}
	case eventbus.TopicTTSStarted:
		var evt eventbus.TTSStarted
		if json.Unmarshal(payload, &evt) == nil {
			bus.Publish(topic, evt)
		}
	case eventbus.TopicTTSFinished:
		var evt eventbus.TTSFinished
		if json.Unmarshal(payload, &evt) == nil {
			bus.Publish(topic, evt)
		}
	default:
		logger.Debug("gui: dropping unrecognized wire bus topic", zap.String("topic", string(topic)))
	}
}

// pushTypedCommand forwards a line of text to the frontend's typed-command
// ingress, for a GUI-side "send command" control.
func pushTypedCommand(cfg *config.Config, text string) error {
	return textingress.Push(fmt.Sprintf("127.0.0.1:%d", cfg.IPC.TextCommandPort), text)
}

// handleCommandPush backs POST /v1/command {"text": "..."}, letting a GUI
// client drive the assistant without a microphone.
func handleCommandPush(w http.ResponseWriter, r *http.Request, cfg *config.Config, logger *zap.Logger) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := pushTypedCommand(cfg, body.Text); err != nil {
		logger.Warn("gui: command push failed", zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
