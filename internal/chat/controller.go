// Package chat orchestrates conversational turns against the banking-agent
// backend: optimistic transcript appends, request correlation to the ambient
// session, reply decoding and session-id persistence.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tellerdesk/internal/api"
	"tellerdesk/internal/format"
	"tellerdesk/internal/session"
	"tellerdesk/internal/transcript"
)

// FailureText is appended to the transcript whenever a turn fails on
// transport or status. The user's own message is never rolled back.
const FailureText = "Sorry, something went wrong while contacting the agent. Please try again."

var (
	// ErrBusy is returned when a send is attempted while another is in
	// flight on the same controller. The call is a no-op.
	ErrBusy = errors.New("a send is already in flight")
	// ErrBlankMessage is returned for messages that are empty after trimming.
	ErrBlankMessage = errors.New("message is blank")
)

// State is the controller's per-turn state. A turn moves idle -> sending and
// settles back to idle whether it succeeded or failed; new sends are rejected
// while not idle.
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

// SendOptions carries per-turn flags.
type SendOptions struct {
	// EndSession marks this as the terminal turn; on success the session is
	// archived and the session slot cleared.
	EndSession bool
}

// EndedFunc is notified after an end-session turn completes, with the id the
// session had and the full transcript, so the caller can archive it.
type EndedFunc func(sessionID string, msgs []transcript.Message)

// Controller drives one conversation. Sends are serialized: at most one
// outstanding request per controller instance. Distinct controllers share the
// session slot without mutual exclusion (last write wins).
type Controller struct {
	client     *api.Client
	sessions   session.Store
	customerID string
	onEnded    EndedFunc

	mu      sync.Mutex
	state   State
	ts      *transcript.Transcript
	lastErr string
}

// New creates a controller for the main, unscoped conversation.
func New(client *api.Client, sessions session.Store) *Controller {
	return &Controller{
		client:   client,
		sessions: sessions,
		state:    StateIdle,
		ts:       transcript.New(),
	}
}

// NewScoped creates a controller whose turns all carry the given customer id.
// It reuses whatever session the shared store already holds but otherwise
// behaves like an unscoped controller.
func NewScoped(client *api.Client, sessions session.Store, customerID string) *Controller {
	c := New(client, sessions)
	c.customerID = customerID
	return c
}

// OnSessionEnded registers the archive callback. Must be called before the
// first send.
func (c *Controller) OnSessionEnded(fn EndedFunc) {
	c.onEnded = fn
}

// CustomerID returns the customer scope, or "" for the main chat.
func (c *Controller) CustomerID() string {
	return c.customerID
}

// Send performs one ordinary turn.
func (c *Controller) Send(ctx context.Context, text string) error {
	return c.SendWith(ctx, text, SendOptions{})
}

// SendWith performs one turn. The user message is appended before the network
// call; on any failure a fixed failure message is appended and the error is
// both returned and kept for inline display. A server-returned session_id is
// persisted unconditionally.
func (c *Controller) SendWith(ctx context.Context, text string, opts SendOptions) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrBlankMessage
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateSending
	c.lastErr = ""
	c.ts.Append(transcript.SenderUser, text)
	req := api.ChatRequest{
		Message:    text,
		SessionID:  c.sessions.Get(),
		CustomerID: c.customerID,
		EndSession: opts.EndSession,
	}
	c.mu.Unlock()

	resp, err := c.client.Chat(ctx, req)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err.Error()
		c.ts.Append(transcript.SenderAgent, FailureText)
		c.state = StateIdle
		c.mu.Unlock()
		return fmt.Errorf("chat turn failed: %w", err)
	}
	if !resp.OK() {
		c.lastErr = fmt.Sprintf("agent returned status %d", resp.Status)
		c.ts.Append(transcript.SenderAgent, FailureText)
		c.state = StateIdle
		c.mu.Unlock()
		return errors.New("chat turn failed: " + c.lastErr)
	}

	decoded := decodeBody(resp)

	// The server is the sole source of truth for session identity: any
	// session_id in the reply overwrites the stored one.
	if obj, ok := decoded.(*format.Object); ok {
		if sid, ok := obj.GetString("session_id"); ok {
			c.sessions.Set(sid)
		}
	}

	reply := decoded
	if obj, ok := decoded.(*format.Object); ok {
		if v, has := obj.Get("reply"); has {
			reply = v
		}
	}
	c.ts.Append(transcript.SenderAgent, format.Format(reply))

	var (
		endedID   string
		endedMsgs []transcript.Message
	)
	if opts.EndSession {
		endedID = c.sessions.Get()
		c.sessions.Set("")
		endedMsgs = c.ts.Messages()
	}
	c.state = StateIdle
	c.mu.Unlock()

	if endedMsgs != nil && c.onEnded != nil {
		c.onEnded(endedID, endedMsgs)
	}
	return nil
}

// StartNew clears the session slot and begins an empty transcript.
func (c *Controller) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ts = transcript.New()
	c.lastErr = ""
	c.sessions.Set("")
}

// Transcript returns a copy of the conversation so far.
func (c *Controller) Transcript() []transcript.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts.Messages()
}

// TranscriptLen returns the number of messages.
func (c *Controller) TranscriptLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts.Len()
}

// HasAgentMessage reports whether any agent message satisfies the predicate.
func (c *Controller) HasAgentMessage(pred func(text string) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts.Any(func(m transcript.Message) bool {
		return m.Sender == transcript.SenderAgent && pred(m.Text)
	})
}

// State returns the current turn state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the inline error text of the most recent turn, or "".
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// decodeBody decodes a response body: JSON when the content type says so,
// best-effort JSON otherwise, raw text as the last resort.
func decodeBody(resp *api.Response) any {
	if resp.IsJSON() || json.Valid(resp.Body) {
		if v, err := format.Parse(resp.Body); err == nil {
			return v
		}
	}
	return string(resp.Body)
}
