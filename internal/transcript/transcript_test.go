package transcript

import "testing"

func TestAppendAssignsIDsAndPreservesOrder(t *testing.T) {
	tr := New()
	tr.Append(SenderUser, "hello")
	tr.Append(SenderAgent, "hi there")

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != SenderUser || msgs[0].Text != "hello" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Sender != SenderAgent {
		t.Errorf("unexpected second sender: %s", msgs[1].Sender)
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Errorf("messages need distinct non-empty ids: %q vs %q", msgs[0].ID, msgs[1].ID)
	}
}

func TestMessagesReturnsACopy(t *testing.T) {
	tr := New()
	tr.Append(SenderUser, "original")

	msgs := tr.Messages()
	msgs[0].Text = "mutated"

	if got := tr.Messages()[0].Text; got != "original" {
		t.Errorf("transcript must not be mutable through the returned slice, got %q", got)
	}
}

func TestLastAndAny(t *testing.T) {
	tr := New()
	if _, ok := tr.Last(); ok {
		t.Error("empty transcript has no last message")
	}

	tr.Append(SenderUser, "question")
	tr.Append(SenderAgent, "answer")

	last, ok := tr.Last()
	if !ok || last.Text != "answer" {
		t.Errorf("unexpected last message: %+v (ok=%v)", last, ok)
	}

	hasAgent := tr.Any(func(m Message) bool { return m.Sender == SenderAgent })
	if !hasAgent {
		t.Error("expected Any to find the agent message")
	}
}
