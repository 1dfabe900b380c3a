// Package guiapi exposes the status/event bridge the GUI process polls
// and subscribes to, so it can visualise assistant state and component
// health without importing the backend's internals directly.
package guiapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/eventbus"
)

// ComponentStatus is the last known health report for one backend or
// frontend component (see eventbus.InitStatus).
type ComponentStatus struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// Snapshot is what GET /v1/status returns.
type Snapshot struct {
	State      string            `json:"state"`
	Components []ComponentStatus `json:"components"`
}

// Server serves the GUI's status/event bridge.
type Server struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	state      string
	components map[string]ComponentStatus

	subsMu sync.Mutex
	subs   map[*wsClient]struct{}
}

type wsClient struct {
	send chan []byte
}

// New constructs a Server. allowAnyOrigin should only be true in local
// development; production deployments should leave it false so only
// same-origin browser clients may open the event websocket.
func New(logger *zap.Logger, allowAnyOrigin bool) *Server {
	s := &Server{
		logger:     logger,
		state:      "DORMANT",
		components: make(map[string]ComponentStatus),
		subs:       make(map[*wsClient]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAnyOrigin {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			return origin == "" || strings.Contains(origin, r.Host)
		},
	}
	return s
}

// Router builds the chi router exposing /healthz, /v1/status, and
// /v1/events/ws.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/events/ws", s.handleEventsWS)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	snap := Snapshot{State: s.state}
	for _, c := range s.components {
		snap.Components = append(snap.Components, c)
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &wsClient{send: make(chan []byte, 64)}
	s.subsMu.Lock()
	s.subs[client] = struct{}{}
	s.subsMu.Unlock()

	defer func() {
		s.subsMu.Lock()
		delete(s.subs, client)
		s.subsMu.Unlock()
		conn.Close()
	}()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for msg := range client.send {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// UpdateState records a new AssistantState, broadcasting it to every
// connected websocket client.
func (s *Server) UpdateState(to string) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
	s.broadcast(map[string]any{"type": "state.changed", "state": to})
}

// UpdateComponent records a component's health, broadcasting it.
func (s *Server) UpdateComponent(cs ComponentStatus) {
	s.mu.Lock()
	s.components[cs.Component] = cs
	s.mu.Unlock()
	s.broadcast(map[string]any{"type": "init.status_update", "component": cs})
}

func (s *Server) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for c := range s.subs {
		select {
		case c.send <- data:
		default:
			s.logger.Warn("guiapi: dropping event, client send buffer full")
		}
	}
}

// BridgeFrom wires a wire-bus subscription (state.changed + init events
// re-published from the backend) into this server's broadcast. cmd/gui
// calls this after dialing the backend's wire event bus.
func (s *Server) BridgeFrom(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.TopicStateChanged, func(payload any) {
		if evt, ok := payload.(eventbus.StateChanged); ok {
			s.UpdateState(evt.To)
		}
	})
	bus.Subscribe(eventbus.TopicInitStatus, func(payload any) {
		if evt, ok := payload.(eventbus.InitStatus); ok {
			s.UpdateComponent(ComponentStatus{Component: evt.Component, Status: evt.Status, Detail: evt.Detail})
		}
	})
}
