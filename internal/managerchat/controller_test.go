package managerchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"tellerdesk/internal/api"
	"tellerdesk/internal/decisions"
	"tellerdesk/internal/format"
	"tellerdesk/internal/session"
)

// reviewBackend serves /chat with a profile payload and /update-decisions
// with a scripted status.
type reviewBackend struct {
	chatCalls    atomic.Int32
	updateStatus int
	lastChat     api.ChatRequest
}

func (b *reviewBackend) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.lastChat = req
		b.chatCalls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reply": map[string]any{
				"customer_id":    req.CustomerID,
				"bank_statement": map[string]any{"transactions": []any{1, 2}},
				"credit_profile": map[string]any{"credit_cards": []any{1}, "loans": []any{}},
			},
			"session_id": "S1",
		})
	})
	mux.HandleFunc("/update-decisions", func(w http.ResponseWriter, r *http.Request) {
		status := b.updateStatus
		if status == 0 {
			status = http.StatusOK
		}
		if status != http.StatusOK {
			http.Error(w, `{"detail":"persist failed"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return httptest.NewServer(mux)
}

func countingSource(hits *atomic.Int32, body string) decisions.Source {
	return decisions.Source{
		Name: "counting",
		Fetch: func(ctx context.Context) ([]byte, error) {
			hits.Add(1)
			return []byte(body), nil
		},
	}
}

func TestOpenAutoLoadsProfileOnce(t *testing.T) {
	backend := &reviewBackend{}
	srv := backend.server()
	defer srv.Close()

	client := api.NewClient(srv.URL)
	sessions := session.NewMemStore()
	store := decisions.NewStore(nil, client)

	m := New(client, sessions, store, "C7")

	if err := m.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	// A re-render opens again; the synthetic turn must not re-fire.
	if err := m.Open(context.Background()); err != nil {
		t.Fatalf("second Open failed: %v", err)
	}

	if got := backend.chatCalls.Load(); got != 1 {
		t.Errorf("expected exactly one profile-load turn, got %d", got)
	}
	if backend.lastChat.CustomerID != "C7" {
		t.Errorf("profile load must carry the customer id, got %q", backend.lastChat.CustomerID)
	}

	msgs := m.Transcript()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if !format.LooksLikeProfile(msgs[1].Text) {
		t.Errorf("expected a profile summary, got %q", msgs[1].Text)
	}
}

func TestOpenReusesAmbientSessionWithoutCreatingOne(t *testing.T) {
	backend := &reviewBackend{}
	srv := backend.server()
	defer srv.Close()

	client := api.NewClient(srv.URL)
	sessions := session.NewMemStore()
	sessions.Set("ambient")
	store := decisions.NewStore(nil, client)

	m := New(client, sessions, store, "C7")
	if err := m.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if backend.lastChat.SessionID != "ambient" {
		t.Errorf("manager turn must reuse the ambient session, got %q", backend.lastChat.SessionID)
	}
}

func TestCloseAfterSaveRefetches(t *testing.T) {
	backend := &reviewBackend{}
	srv := backend.server()
	defer srv.Close()

	client := api.NewClient(srv.URL)
	var fetchHits atomic.Int32
	store := decisions.NewStore([]decisions.Source{
		countingSource(&fetchHits, `{"C7": {"decision": "APPROVE", "reason": "saved"}}`),
	}, client)

	m := New(client, session.NewMemStore(), store, "C7")

	if err := m.Save(context.Background(), "APPROVE", "documents verified"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if fetchHits.Load() != 1 {
		t.Errorf("close after save must refetch exactly once, got %d", fetchHits.Load())
	}
}

func TestCloseWithoutSaveDoesNotRefetch(t *testing.T) {
	backend := &reviewBackend{}
	srv := backend.server()
	defer srv.Close()

	client := api.NewClient(srv.URL)
	var fetchHits atomic.Int32
	store := decisions.NewStore([]decisions.Source{
		countingSource(&fetchHits, `{}`),
	}, client)

	m := New(client, session.NewMemStore(), store, "C7")
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if fetchHits.Load() != 0 {
		t.Errorf("close without save must not refetch, got %d", fetchHits.Load())
	}
}

func TestSaveFailureDoesNotMarkSaved(t *testing.T) {
	backend := &reviewBackend{updateStatus: http.StatusInternalServerError}
	srv := backend.server()
	defer srv.Close()

	client := api.NewClient(srv.URL)
	var fetchHits atomic.Int32
	store := decisions.NewStore([]decisions.Source{
		countingSource(&fetchHits, `{}`),
	}, client)

	m := New(client, session.NewMemStore(), store, "C7")
	if err := m.Save(context.Background(), "APPROVE", "x"); err == nil {
		t.Fatal("expected save failure")
	}
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if fetchHits.Load() != 0 {
		t.Errorf("failed save must not trigger the close refetch, got %d", fetchHits.Load())
	}
}

func TestGate(t *testing.T) {
	open := NewGate("")
	if !open.Authenticate("anything") {
		t.Errorf("empty passcode leaves the gate open")
	}

	locked := NewGate("s3cret")
	if locked.Authenticate("wrong") {
		t.Errorf("wrong passcode must be denied")
	}
	if !locked.Authenticate("s3cret") {
		t.Errorf("correct passcode must be granted")
	}
}
