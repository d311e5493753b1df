package format

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecisionReportWinsOverEverything(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{
			name:    "plain decision",
			payload: map[string]any{"decision": "REVIEW", "reason": "high utilization"},
			want:    "Decision: REVIEW\nReason: high utilization",
		},
		{
			name: "extra keys do not demote to generic dump",
			payload: map[string]any{
				"decision": "APPROVE",
				"reason":   "all rules satisfied",
				"score":    11,
				"notes":    []any{"a", "b"},
			},
			want: "Decision: APPROVE\nReason: all rules satisfied",
		},
		{
			name: "decision pair beats profile keys",
			payload: map[string]any{
				"decision":       "REJECT",
				"reason":         "too many loans",
				"bank_statement": map[string]any{},
			},
			want: "Decision: REJECT\nReason: too many loans",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format(tc.payload); got != tc.want {
				t.Errorf("Format() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProfileSummary(t *testing.T) {
	payload := map[string]any{
		"customer_id": "C101",
		"bank_statement": map[string]any{
			"transactions": []any{1.0, 2.0, 3.0},
		},
		"credit_profile": map[string]any{
			"credit_cards": []any{map[string]any{}},
			"loans":        []any{},
		},
	}

	want := "Customer: C101\nTransactions: 3\nCredit cards: 1\nLoans: 0"
	if got := Format(payload); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestProfileSummaryNeverFallsThroughToDump(t *testing.T) {
	payloads := []map[string]any{
		{"bank_statement": map[string]any{}},
		{"credit_profile": map[string]any{}},
		{"credit_profile": "not an object", "other": 1},
	}
	for _, p := range payloads {
		got := Format(p)
		if !strings.HasPrefix(got, "Customer: ") {
			t.Errorf("Format(%v) = %q, expected a profile summary", p, got)
		}
	}
}

func TestProfileSummaryMissingFields(t *testing.T) {
	// No customer id anywhere, transaction field is not a list.
	payload := map[string]any{
		"bank_statement": map[string]any{"transactions": "missing"},
	}
	want := "Customer: N/A\nTransactions: 0\nCredit cards: 0\nLoans: 0"
	if got := Format(payload); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestGenericDumpPreservesSourceOrderAndCaps(t *testing.T) {
	raw := `{"z":1,"a":"two","list":[1,2,3],"nested":{"x":1},"e":true,"f":null,"g":7,"h":8,"ninth":9}`
	parsed, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := Format(parsed)
	want := strings.Join([]string{
		"z: 1",
		"a: two",
		"list: [3 items]",
		"nested: {...}",
		"e: true",
		"f: null",
		"g: 7",
		"h: 8",
	}, "\n")
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if strings.Contains(got, "ninth") {
		t.Errorf("dump should stop after 8 keys, got %q", got)
	}
}

func TestStringUnwrapping(t *testing.T) {
	inner := map[string]any{"decision": "APPROVE", "reason": "ok"}
	encoded, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if got, want := Format(string(encoded)), Format(inner); got != want {
		t.Errorf("Format(encoded) = %q, want %q", got, want)
	}

	// Unwrapping stops after one level: a doubly encoded string renders as
	// the once-decoded text.
	double, err := json.Marshal(string(encoded))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if got := Format(string(double)); got != string(encoded) {
		t.Errorf("Format(double-encoded) = %q, want %q", got, string(encoded))
	}
}

func TestPlainTextVerbatim(t *testing.T) {
	for _, text := range []string{"hello there", "Decision pending review"} {
		if got := Format(text); got != text {
			t.Errorf("Format(%q) = %q, want verbatim", text, got)
		}
	}
}

func TestEmptyAndUnknownAreDistinctFixedMessages(t *testing.T) {
	empty := Format(map[string]any{})
	if empty != EmptyReplyText {
		t.Errorf("Format({}) = %q, want %q", empty, EmptyReplyText)
	}

	unknown := Format(nil)
	if unknown != NoReplyText {
		t.Errorf("Format(nil) = %q, want %q", unknown, NoReplyText)
	}

	if empty == unknown {
		t.Errorf("empty and unknown messages must be distinct")
	}

	// Non-object scalars also land in the unknown branch.
	if got := Format(42.0); got != NoReplyText {
		t.Errorf("Format(42) = %q, want %q", got, NoReplyText)
	}
}

func TestLooksLikeProfile(t *testing.T) {
	profile := Format(map[string]any{"bank_statement": map[string]any{}})
	if !LooksLikeProfile(profile) {
		t.Errorf("expected %q to look like a profile", profile)
	}
	if LooksLikeProfile("Decision: APPROVE\nReason: ok") {
		t.Errorf("decision summary must not look like a profile")
	}
}

func TestParsePreservesDuplicateKeySemantics(t *testing.T) {
	parsed, err := Parse([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	obj, ok := parsed.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", parsed)
	}
	if obj.Len() != 2 {
		t.Errorf("expected 2 distinct keys, got %d", obj.Len())
	}
	v, _ := obj.Get("a")
	if v.(json.Number).String() != "3" {
		t.Errorf("duplicate key should keep last value, got %v", v)
	}
}
