// Package codec exports the tracker lists as JSON or YAML documents and describes them with a JSON schema.
package codec

import (
	"fmt"
	"io"
	"sort"

	"github.com/yura4350/jobtrack/app/store"
)

// Document is the exported form of both lists
type Document struct {
	Jobs       []store.Job       `json:"jobs" yaml:"jobs" jsonschema:"description=saved job postings, newest first"`
	Recruiters []store.Recruiter `json:"recruiters" yaml:"recruiters" jsonschema:"description=saved recruiter contacts, newest first"`
}

// Exporter writes a document in one format
type Exporter interface {
	Export(doc Document, w io.Writer) error
	Format() string
}

var exporters = map[string]Exporter{}

func register(e Exporter) { exporters[e.Format()] = e }

func init() {
	register(&JSONCodec{})
	register(&YAMLCodec{})
}

// ForFormat returns the exporter for format
func ForFormat(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q, supported: %v", format, Formats())
	}
	return e, nil
}

// Formats lists supported formats
func Formats() []string {
	res := make([]string, 0, len(exporters))
	for f := range exporters {
		res = append(res, f)
	}
	sort.Strings(res)
	return res
}
