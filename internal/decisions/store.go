// Package decisions fetches, normalizes and persists the customer -> decision
// record mapping that backs the manager's review table. The snapshot can live
// in several places (local file, backend endpoints) and arrives in several
// shapes; only normalized records ever leave this package.
package decisions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrExhausted is reported when every candidate source failed. It is a
// distinct state from a successful fetch of zero decisions.
var ErrExhausted = errors.New("no decision source returned usable data")

// Record is one customer's normalized eligibility verdict.
// Decision is APPROVE, REVIEW, REJECT or "" when unknown.
type Record struct {
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Updater persists a manager override. Satisfied by api.Client.
type Updater interface {
	UpdateDecision(ctx context.Context, customerID, decision, reason string) error
}

// Store holds the normalized decision mapping. Records are never deleted by
// the client; absence from a freshly fetched snapshot is the only removal
// mechanism.
type Store struct {
	sources []Source
	updater Updater
	now     func() time.Time

	mu       sync.Mutex
	records  map[string]Record
	fetchErr string
}

// NewStore creates a store over the given candidate sources and update
// endpoint.
func NewStore(sources []Source, updater Updater) *Store {
	return &Store{
		sources: sources,
		updater: updater,
		now:     time.Now,
		records: make(map[string]Record),
	}
}

// Fetch probes the candidate sources in order and replaces the in-memory
// mapping with the first usable snapshot. A candidate that errors, returns a
// non-success status or an unparsable body is skipped silently. If every
// candidate is exhausted the mapping is emptied (no stale data is retained)
// and ErrExhausted is returned.
func (s *Store) Fetch(ctx context.Context) error {
	for _, src := range s.sources {
		data, err := src.Fetch(ctx)
		if err != nil {
			continue
		}
		mapping, err := parseSnapshot(data)
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.records = mapping
		s.fetchErr = ""
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.records = make(map[string]Record)
	s.fetchErr = ErrExhausted.Error()
	s.mu.Unlock()
	return ErrExhausted
}

// Save validates and posts an override to the update endpoint. The in-memory
// record is only mutated on success, with a freshly generated timestamp; on
// failure the previous record stands so the table never claims an unsaved
// state.
func (s *Store) Save(ctx context.Context, customerID, decision, reason string) error {
	customerID = strings.TrimSpace(customerID)
	decision = strings.ToUpper(strings.TrimSpace(decision))

	if err := validateSave(customerID, decision, reason); err != nil {
		return err
	}
	if err := s.updater.UpdateDecision(ctx, customerID, decision, reason); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}

	s.mu.Lock()
	s.records[customerID] = Record{
		Decision:  decision,
		Reason:    reason,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}
	s.mu.Unlock()
	return nil
}

// Records returns a copy of the normalized mapping.
func (s *Store) Records() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Record returns the normalized record for one customer.
func (s *Store) Record(customerID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[customerID]
	return rec, ok
}

// Len returns the number of known records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// FetchError returns the user-visible fetch error text, or "" after a
// successful fetch. It distinguishes "could not load decisions" from "zero
// decisions exist".
func (s *Store) FetchError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

// parseSnapshot accepts either the customer -> record mapping directly or an
// object wrapping it under a "decisions" key, and normalizes every entry.
func parseSnapshot(data []byte) (map[string]Record, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("snapshot is not a JSON object: %w", err)
	}

	raw := payload
	if wrapped, ok := payload["decisions"].(map[string]any); ok {
		raw = wrapped
	}

	mapping := make(map[string]Record, len(raw))
	for customerID, entry := range raw {
		fields, _ := entry.(map[string]any)
		mapping[customerID] = normalizeRecord(fields)
	}
	return mapping, nil
}

// normalizeRecord folds the heterogeneous field spellings the snapshot
// sources use into one Record shape.
func normalizeRecord(fields map[string]any) Record {
	return Record{
		Decision:  strings.ToUpper(strings.TrimSpace(firstString(fields, "decision", "status"))),
		Reason:    firstString(fields, "reason", "explanation"),
		UpdatedAt: firstString(fields, "updated_at", "updatedAt", "ts"),
	}
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(val)
		}
	}
	return ""
}
