package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yura4350/jobtrack/app/store"
)

// JSONCodec handles JSON export
type JSONCodec struct{}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Export writes the document as indented JSON
func (c *JSONCodec) Export(doc Document, w io.Writer) error {
	doc = normalize(doc)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// normalize replaces nil lists so they encode as empty arrays
func normalize(doc Document) Document {
	if doc.Jobs == nil {
		doc.Jobs = []store.Job{}
	}
	if doc.Recruiters == nil {
		doc.Recruiters = []store.Recruiter{}
	}
	return doc
}
