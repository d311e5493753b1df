package transcript

import (
	"github.com/google/uuid"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is one entry in a conversation transcript.
type Message struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Transcript is an append-only, ordered list of messages. Insertion order is
// display order. Messages are never mutated or removed after insertion;
// failures are reported by appending an explanatory agent message, not by
// rewriting history.
type Transcript struct {
	msgs []Message
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append adds a message with a freshly generated client-side id and returns it.
func (t *Transcript) Append(sender Sender, text string) Message {
	msg := Message{
		ID:     uuid.NewString(),
		Sender: sender,
		Text:   text,
	}
	t.msgs = append(t.msgs, msg)
	return msg
}

// Messages returns a copy of the transcript in insertion order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.msgs)
}

// Last returns the most recent message, if any.
func (t *Transcript) Last() (Message, bool) {
	if len(t.msgs) == 0 {
		return Message{}, false
	}
	return t.msgs[len(t.msgs)-1], true
}

// Any reports whether any message satisfies the predicate.
func (t *Transcript) Any(pred func(Message) bool) bool {
	for _, m := range t.msgs {
		if pred(m) {
			return true
		}
	}
	return false
}
