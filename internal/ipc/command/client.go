package command

import (
	"encoding/json"
	"net"
	"time"

	"github.com/letrezdraw/AIST/internal/aisterr"
	"github.com/letrezdraw/AIST/internal/dispatcher"
)

// ClientOptions controls a Client's send/receive deadlines.
type ClientOptions struct {
	SendTimeout    time.Duration
	ReceiveTimeout time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.SendTimeout <= 0 {
		o.SendTimeout = 10 * time.Second
	}
	if o.ReceiveTimeout <= 0 {
		o.ReceiveTimeout = 10 * time.Second
	}
	return o
}

// Client dials the backend's command channel for each request, since the
// channel is single-request-at-a-time and the backend accepts one
// connection at a time.
type Client struct {
	addr string
	opts ClientOptions
}

// NewClient constructs a Client dialing addr per request.
func NewClient(addr string, opts ClientOptions) *Client {
	return &Client{addr: addr, opts: opts.withDefaults()}
}

// SendCommand sends text/state as a "command" request and returns the
// backend's DispatchResponse. On timeout or dial failure it synthesizes
// a fallback response so the frontend never stalls or crashes on a
// transient backend outage.
func (c *Client) SendCommand(text, state string) dispatcher.DispatchResponse {
	reply, err := c.roundTrip(NewCommandRequest(text, state))
	if err != nil {
		return synthesizeFallback(err)
	}
	return reply.ToDispatchResponse()
}

// SendEvent asks the backend to re-broadcast eventType/payload onto the
// wire event bus. Errors are returned rather than synthesized since
// there is no DispatchResponse to fall back to.
func (c *Client) SendEvent(eventType string, payload any) error {
	req, err := NewEventRequest(eventType, payload)
	if err != nil {
		return err
	}
	_, err = c.roundTrip(req)
	return err
}

// ClearConversation sends the clear-history sentinel.
func (c *Client) ClearConversation() error {
	_, err := c.roundTrip(NewCommandRequest(ClearConversationSentinel, ""))
	return err
}

func (c *Client) roundTrip(req Request) (Reply, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.opts.SendTimeout)
	if err != nil {
		return Reply{}, &aisterr.TransientIPCError{Op: "dial", Err: err}
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(c.opts.SendTimeout))
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Reply{}, &aisterr.TransientIPCError{Op: "write", Err: err}
	}

	conn.SetReadDeadline(time.Now().Add(c.opts.ReceiveTimeout))
	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, &aisterr.TransientIPCError{Op: "read", Err: err}
	}
	return reply, nil
}

func synthesizeFallback(err error) dispatcher.DispatchResponse {
	if ipcErr, ok := err.(*aisterr.TransientIPCError); ok {
		if ipcErr.Op == "dial" {
			return dispatcher.DispatchResponse{Action: dispatcher.ActionCommand, Speak: "cannot reach brain"}
		}
	}
	return dispatcher.DispatchResponse{Action: dispatcher.ActionCommand, Speak: "taking too long to respond"}
}
