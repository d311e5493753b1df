package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatReturnsNonOKAsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"no such customer"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("status errors must come back as responses, got %v", err)
	}
	if resp.OK() {
		t.Errorf("404 must not report OK")
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Status)
	}
}

func TestChatOmitsEmptyOptionalFields(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reply":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Chat(context.Background(), ChatRequest{Message: "hi"}); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	for _, key := range []string{"session_id", "customer_id", "end_session"} {
		if _, present := raw[key]; present {
			t.Errorf("empty %s must be omitted from the payload", key)
		}
	}
}

func TestUpdateDecisionSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"decisions file is read-only"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.UpdateDecision(context.Background(), "C1", "APPROVE", "ok")
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if !strings.Contains(err.Error(), "decisions file is read-only") {
		t.Errorf("error should carry the server detail, got %q", err.Error())
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	c := NewClient("http://localhost:8000/")
	if c.BaseURL() != "http://localhost:8000" {
		t.Errorf("unexpected base url %q", c.BaseURL())
	}
}
