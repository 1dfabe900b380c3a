package command

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/conversation"
	"github.com/letrezdraw/AIST/internal/dispatcher"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/state"
)

const pollInterval = 100 * time.Millisecond

// Dispatcher is the subset of dispatcher.Dispatcher the server needs,
// declared locally so this package does not import the dispatcher's
// skill/LLM/factstore dependency graph just for the type.
type Dispatcher interface {
	Dispatch(ctx context.Context, utterance string, assistantState state.AssistantState) dispatcher.DispatchResponse
}

// Server binds ipc.command_port and serves one request at a time, since
// the dispatcher it wraps is not safe for concurrent Dispatch calls.
// Grounded on the poll-with-timeout accept loop shape used across the
// corpus for cancellable server loops, generalizing
// original_source/core/ipc/server.py's blocking ZeroMQ REP socket into a
// length-prefixed net.Conn equivalent.
type Server struct {
	ln         *net.TCPListener
	dispatcher Dispatcher
	history    *conversation.Manager
	bus        *eventbus.Bus
	logger     *zap.Logger
}

// NewServer binds addr and constructs a Server.
func NewServer(addr string, disp Dispatcher, history *conversation.Manager, bus *eventbus.Bus, logger *zap.Logger) (*Server, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("command: resolve %s: %w", addr, err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("command: listen %s: %w", addr, err)
	}
	return &Server{ln: ln, dispatcher: disp, history: history, bus: bus, logger: logger}, nil
}

// Addr returns the bound address, useful when addr was ":0" for tests.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve accepts and handles one connection at a time until ctx is
// canceled, polling Accept with a short deadline so shutdown is prompt.
func (s *Server) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.ln.SetDeadline(time.Now().Add(pollInterval))
		conn, err := s.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				s.logger.Warn("command: accept error", zap.Error(err))
				continue
			}
		}

		s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.ln.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&req); err != nil {
		s.logger.Warn("command: decode request failed", zap.Error(err))
		return
	}

	reply := s.handleRequest(req)

	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		s.logger.Warn("command: encode reply failed", zap.Error(err))
	}
}

func (s *Server) handleRequest(req Request) Reply {
	switch req.Type {
	case RequestTypeEvent:
		var payload any
		_ = json.Unmarshal(req.Payload, &payload)
		s.bus.Publish(eventbus.Topic(req.EventType), payload)
		return Reply{}

	case RequestTypeCommand:
		payload, err := req.DecodeCommandPayload()
		if err != nil {
			s.logger.Warn("command: decode command payload failed", zap.Error(err))
			return Reply{}
		}
		if payload.Text == ClearConversationSentinel {
			s.history.Clear()
			return Reply{}
		}
		resp := s.dispatcher.Dispatch(context.Background(), payload.Text, state.AssistantState(payload.State))
		return FromDispatchResponse(resp)

	default:
		return Reply{}
	}
}
