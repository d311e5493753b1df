package decisions

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// saveSchema mirrors the server-side checks on the update endpoint so bad
// overrides are rejected before they leave the client.
const saveSchema = `{
	"type": "object",
	"required": ["customer_id", "decision"],
	"properties": {
		"customer_id": {"type": "string", "minLength": 1},
		"decision": {"type": "string", "enum": ["APPROVE", "REJECT", "REVIEW"]},
		"reason": {"type": "string"}
	}
}`

// ValidationError reports an override payload that failed schema validation.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("decision override validation failed: %s", strings.Join(e.Errors, "; "))
}

func validateSave(customerID, decision, reason string) error {
	payload := map[string]any{
		"customer_id": customerID,
		"decision":    decision,
		"reason":      reason,
	}

	schemaLoader := gojsonschema.NewStringLoader(saveSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}
		return &ValidationError{Errors: msgs}
	}

	return nil
}
