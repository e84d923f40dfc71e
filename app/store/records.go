package store

import (
	"errors"
	"strings"
	"time"
)

// storage keys used by the tracker, kept compatible with the browser extension's localStorage layout
const (
	JobsKey       = "savedJobs"
	RecruitersKey = "savedRecruiters"
)

// defaults substituted for optional fields
const (
	DefaultJobTitle = "Untitled Job"
	DefaultCompany  = "Unknown Company"
)

// DefaultDateLayout matches the en-US short date used by the popup, e.g. 10/14/2026
const DefaultDateLayout = "1/2/2006"

// ValidationError is returned when a required field is missing. Message is safe to show to users.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// validation errors, matched with errors.Is
var (
	ErrJobURLRequired        = &ValidationError{Field: "url", Message: "Please enter a job posting URL"}
	ErrRecruiterNameRequired = &ValidationError{Field: "name", Message: "Please enter the recruiter name"}
	ErrRecruiterURLRequired  = &ValidationError{Field: "url", Message: "Please enter a contact URL"}
)

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Job is a saved job posting
type Job struct {
	ID        int64  `json:"id" yaml:"id" jsonschema:"description=creation time in unix milliseconds"`
	Title     string `json:"title" yaml:"title"`
	URL       string `json:"url" yaml:"url" jsonschema:"minLength=1"`
	DateAdded string `json:"dateAdded" yaml:"dateAdded"`
}

// Recruiter is a saved recruiter contact
type Recruiter struct {
	ID        int64  `json:"id" yaml:"id" jsonschema:"description=creation time in unix milliseconds"`
	Name      string `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Company   string `json:"company" yaml:"company"`
	URL       string `json:"url" yaml:"url" jsonschema:"minLength=1"`
	DateAdded string `json:"dateAdded" yaml:"dateAdded"`
}

// Stamp holds the creation moment and the layout used for DateAdded
type Stamp struct {
	Now        time.Time
	DateLayout string
}

func (s Stamp) id() int64 { return s.Now.UnixMilli() }

func (s Stamp) date() string {
	layout := s.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return s.Now.Format(layout)
}

// NewJob validates inputs and makes a job record. Empty title becomes DefaultJobTitle.
func NewJob(title, url string, st Stamp) (Job, error) {
	title, url = strings.TrimSpace(title), strings.TrimSpace(url)
	if url == "" {
		return Job{}, ErrJobURLRequired
	}
	if title == "" {
		title = DefaultJobTitle
	}
	return Job{ID: st.id(), Title: title, URL: url, DateAdded: st.date()}, nil
}

// NewRecruiter validates inputs and makes a recruiter record. Empty company becomes DefaultCompany.
func NewRecruiter(name, company, url string, st Stamp) (Recruiter, error) {
	name, company, url = strings.TrimSpace(name), strings.TrimSpace(company), strings.TrimSpace(url)
	if name == "" {
		return Recruiter{}, ErrRecruiterNameRequired
	}
	if url == "" {
		return Recruiter{}, ErrRecruiterURLRequired
	}
	if company == "" {
		company = DefaultCompany
	}
	return Recruiter{ID: st.id(), Name: name, Company: company, URL: url, DateAdded: st.date()}, nil
}
