// Package managerchat is the customer-scoped review conversation: a manager
// inspects one customer's profile, discusses it with the agent and overrides
// the recorded eligibility decision.
package managerchat

import (
	"context"
	"fmt"
	"sync"

	"tellerdesk/internal/api"
	"tellerdesk/internal/chat"
	"tellerdesk/internal/decisions"
	"tellerdesk/internal/format"
	"tellerdesk/internal/session"
	"tellerdesk/internal/transcript"
)

// Controller wraps a customer-scoped chat controller and drives the decision
// save path. It reuses whatever session the shared store holds; it never
// creates one of its own beyond what the send path propagates.
type Controller struct {
	chat       *chat.Controller
	decisions  *decisions.Store
	customerID string

	mu     sync.Mutex
	opened bool
	saved  bool
}

// New creates a review conversation for one customer.
func New(client *api.Client, sessions session.Store, store *decisions.Store, customerID string) *Controller {
	return &Controller{
		chat:       chat.NewScoped(client, sessions, customerID),
		decisions:  store,
		customerID: customerID,
	}
}

// Open issues the one-shot synthetic turn that loads the customer's
// consolidated profile (bank statement and credit profile). It fires at most
// once per controller lifetime, and never when the transcript already holds a
// profile-shaped message, so re-rendering the view cannot re-trigger it.
func (m *Controller) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.opened || m.chat.HasAgentMessage(format.LooksLikeProfile) {
		m.opened = true
		m.mu.Unlock()
		return nil
	}
	m.opened = true
	m.mu.Unlock()

	prompt := fmt.Sprintf("Load the bank statement and credit profile for customer %s", m.customerID)
	return m.chat.Send(ctx, prompt)
}

// Send forwards a manager message through the scoped chat controller.
func (m *Controller) Send(ctx context.Context, text string) error {
	return m.chat.Send(ctx, text)
}

// Save records a decision override for this controller's customer.
func (m *Controller) Save(ctx context.Context, decision, reason string) error {
	if err := m.decisions.Save(ctx, m.customerID, decision, reason); err != nil {
		return err
	}
	m.mu.Lock()
	m.saved = true
	m.mu.Unlock()
	return nil
}

// Close finishes the review. If a decision was saved during this controller's
// lifetime, the decision mapping is fetched again so the table reflects the
// just-persisted state rather than the optimistic in-memory update.
func (m *Controller) Close(ctx context.Context) error {
	m.mu.Lock()
	saved := m.saved
	m.mu.Unlock()
	if !saved {
		return nil
	}
	return m.decisions.Fetch(ctx)
}

// CustomerID returns the customer under review.
func (m *Controller) CustomerID() string {
	return m.customerID
}

// Transcript returns a copy of the review conversation.
func (m *Controller) Transcript() []transcript.Message {
	return m.chat.Transcript()
}

// LastError returns the inline error text of the most recent turn, or "".
func (m *Controller) LastError() string {
	return m.chat.LastError()
}
