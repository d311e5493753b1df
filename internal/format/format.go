// Package format normalizes the heterogeneous reply payloads returned by the
// banking-agent backend into displayable text. Replies may arrive as JSON
// objects of varying shape, JSON-encoded strings, or plain text; everything
// funnels through Classify into a small tagged union and Format renders it.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Fixed fallback messages. The empty-object and no-reply cases are
// deliberately distinct so the UI can tell "agent said nothing" from
// "agent sent nothing usable".
const (
	EmptyReplyText = "The agent returned an empty reply."
	NoReplyText    = "No reply received. Please try again."
)

// maxDumpFields caps the generic key dump at the first fields of the object.
const maxDumpFields = 8

// Kind discriminates the reply union.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecisionReport
	KindProfileSummary
	KindGenericRecord
	KindScalarText
	KindEmpty
)

// Profile is the consolidated customer profile summary.
type Profile struct {
	CustomerID   string
	Transactions int
	CreditCards  int
	Loans        int
}

// Reply is the classified form of a decoded payload.
type Reply struct {
	Kind     Kind
	Decision string
	Reason   string
	Profile  Profile
	Fields   []Field
	Text     string
}

// Classify maps an arbitrary decoded payload onto the reply union. The checks
// form a priority cascade: a decision/reason pair always wins over the profile
// summary, which always wins over the generic key dump.
func Classify(raw any) Reply {
	return classify(normalize(raw), false)
}

// Format renders an arbitrary decoded payload as display text. It is total:
// every input produces some string.
func Format(raw any) string {
	return Classify(raw).String()
}

func classify(raw any, unwrapped bool) Reply {
	switch v := raw.(type) {
	case string:
		// A JSON-encoded string is unwrapped exactly once; anything that
		// does not parse as JSON is display text already.
		if !unwrapped && json.Valid([]byte(v)) {
			if parsed, err := Parse([]byte(v)); err == nil {
				return classify(parsed, true)
			}
		}
		return Reply{Kind: KindScalarText, Text: v}
	case *Object:
		if v.Has("decision") && v.Has("reason") {
			dec, _ := v.Get("decision")
			reason, _ := v.Get("reason")
			return Reply{
				Kind:     KindDecisionReport,
				Decision: scalarString(dec),
				Reason:   scalarString(reason),
			}
		}
		if v.Has("bank_statement") || v.Has("credit_profile") {
			return Reply{Kind: KindProfileSummary, Profile: profileFrom(v)}
		}
		if v.Len() > 0 {
			fields := v.Fields()
			if len(fields) > maxDumpFields {
				fields = fields[:maxDumpFields]
			}
			return Reply{Kind: KindGenericRecord, Fields: fields}
		}
		return Reply{Kind: KindEmpty}
	}
	return Reply{Kind: KindUnknown}
}

// String renders the classified reply as display text.
func (r Reply) String() string {
	switch r.Kind {
	case KindDecisionReport:
		return fmt.Sprintf("Decision: %s\nReason: %s", r.Decision, r.Reason)
	case KindProfileSummary:
		return fmt.Sprintf("Customer: %s\nTransactions: %d\nCredit cards: %d\nLoans: %d",
			r.Profile.CustomerID, r.Profile.Transactions, r.Profile.CreditCards, r.Profile.Loans)
	case KindGenericRecord:
		var b strings.Builder
		for i, f := range r.Fields {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(f.Key)
			b.WriteString(": ")
			b.WriteString(dumpValue(f.Value))
		}
		return b.String()
	case KindScalarText:
		return r.Text
	case KindEmpty:
		return EmptyReplyText
	}
	return NoReplyText
}

// LooksLikeProfile reports whether display text has the shape produced by the
// profile summary branch. Used to guard against re-issuing profile loads.
func LooksLikeProfile(text string) bool {
	return strings.HasPrefix(text, "Customer: ") && strings.Contains(text, "\nTransactions: ")
}

func profileFrom(o *Object) Profile {
	bank := childObject(o, "bank_statement")
	credit := childObject(o, "credit_profile")

	id := "N/A"
	if v, ok := o.Get("customer_id"); ok {
		if s := scalarString(v); s != "" && s != "null" {
			id = s
		}
	} else if bank != nil {
		if v, ok := bank.Get("customer_id"); ok {
			if s := scalarString(v); s != "" && s != "null" {
				id = s
			}
		}
	}

	return Profile{
		CustomerID:   id,
		Transactions: listLen(fieldOf(bank, o, "transactions")),
		CreditCards:  listLen(fieldOf(credit, o, "credit_cards")),
		Loans:        listLen(fieldOf(credit, o, "loans")),
	}
}

// fieldOf looks a key up in the nested object first, then the root.
func fieldOf(nested, root *Object, key string) any {
	if nested != nil {
		if v, ok := nested.Get(key); ok {
			return v
		}
	}
	if v, ok := root.Get(key); ok {
		return v
	}
	return nil
}

func childObject(o *Object, key string) *Object {
	v, ok := o.Get(key)
	if !ok {
		return nil
	}
	child, _ := v.(*Object)
	return child
}

func listLen(v any) int {
	if list, ok := v.([]any); ok {
		return len(list)
	}
	return 0
}

// scalarString prints a scalar value literally.
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}

// dumpValue renders one value of the generic key dump: scalars print
// literally, lists print as a count, nested objects collapse.
func dumpValue(v any) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[%d items]", len(val))
	case *Object:
		return "{...}"
	case map[string]any:
		return "{...}"
	}
	return scalarString(v)
}

// normalize converts plain maps (programmatic callers, tests) into the
// ordered Object representation. Map keys are sorted so the generic dump is
// deterministic; payloads decoded from wire bytes via Parse keep source order.
func normalize(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := newObject()
		for _, k := range keys {
			obj.add(k, normalize(v[k]))
		}
		return obj
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	}
	return raw
}

// Parse decodes JSON bytes preserving object key order. Objects decode to
// *Object, arrays to []any, numbers to json.Number.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}
	switch delim {
	case '{':
		obj := newObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key token %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.add(key, val)
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return obj, nil
	case '[':
		var arr []any
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}
