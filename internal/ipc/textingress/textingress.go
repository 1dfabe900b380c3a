// Package textingress implements the frontend's typed-command listener,
// a PUSH/PULL port for typed commands. The GUI and test tools push a
// line of text; the frontend treats each line as an Utterance exactly
// as if it had come from STT, letting a developer or the GUI drive the
// assistant without a microphone.
package textingress

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"

	"go.uber.org/zap"
)

// Line is one typed command pushed by a client.
type Line struct {
	Text string `json:"text"`
}

// Handler is invoked once per received Line.
type Handler func(Line)

// Listener binds ipc.text_command_port and accepts any number of
// concurrent pushing clients (unlike the command channel, typed-command
// ingress has no reply to synchronize on, so there is no reason to
// serialize connections).
type Listener struct {
	ln     *net.TCPListener
	logger *zap.Logger
}

// Bind starts listening on addr.
func Bind(addr string, logger *zap.Logger) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, logger: logger}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Serve accepts connections until ctx is canceled, invoking handler for
// every Line received on any of them.
func (l *Listener) Serve(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.ln.SetDeadline(time.Now().Add(100 * time.Millisecond))
		conn, err := l.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				l.logger.Warn("textingress: accept error", zap.Error(err))
				continue
			}
		}
		go l.handleConn(ctx, conn, handler)
	}
}

func (l *Listener) handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	decoder := json.NewDecoder(bufio.NewReader(conn))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var line Line
		if err := decoder.Decode(&line); err != nil {
			return
		}
		handler(line)
	}
}

// Push dials addr and sends one Line, for GUI/test-tool callers.
func Push(addr string, text string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()
	return json.NewEncoder(conn).Encode(Line{Text: text})
}
