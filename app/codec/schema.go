package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"
)

// WriteSchema writes the JSON schema of Document
func WriteSchema(w io.Writer) error {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := r.Reflect(&Document{})
	schema.Title = "jobtrack export"
	schema.Description = "saved job postings and recruiter contacts"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}
