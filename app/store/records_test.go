package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		url       string
		wantTitle string
		wantErr   error
	}{
		{"title and url", "Go Engineer", "http://a.com/job", "Go Engineer", nil},
		{"empty title defaults", "", "http://a.com", DefaultJobTitle, nil},
		{"blank title defaults", "   ", "http://a.com", DefaultJobTitle, nil},
		{"trims fields", "  Dev ", " http://a.com ", "Dev", nil},
		{"empty url rejected", "Dev", "", "", ErrJobURLRequired},
		{"blank url rejected", "Dev", "  \t", "", ErrJobURLRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewJob(tt.title, tt.url, testStamp)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidation(err))
				assert.Equal(t, Job{}, job)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, job.Title)
			assert.Equal(t, testStamp.Now.UnixMilli(), job.ID)
			assert.Equal(t, "10/14/2026", job.DateAdded)
		})
	}
}

func TestNewJob_Scenario(t *testing.T) {
	job, err := NewJob("", "http://a.com", testStamp)
	require.NoError(t, err)
	assert.Equal(t, Job{ID: testStamp.Now.UnixMilli(), Title: "Untitled Job", URL: "http://a.com",
		DateAdded: "10/14/2026"}, job)
}

func TestNewRecruiter(t *testing.T) {
	tests := []struct {
		name        string
		in          [3]string // name, company, url
		wantCompany string
		wantErr     error
	}{
		{"all fields", [3]string{"Jane", "Acme", "http://in.com/jane"}, "Acme", nil},
		{"empty company defaults", [3]string{"Jane", "", "http://in.com/jane"}, DefaultCompany, nil},
		{"missing name", [3]string{"", "X", "http://b.com"}, "", ErrRecruiterNameRequired},
		{"missing url", [3]string{"Jane", "X", " "}, "", ErrRecruiterURLRequired},
		{"missing both reports name first", [3]string{"", "", ""}, "", ErrRecruiterNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRecruiter(tt.in[0], tt.in[1], tt.in[2], testStamp)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCompany, rec.Company)
			assert.Equal(t, tt.in[0], rec.Name)
		})
	}
}

func TestStampDateLayout(t *testing.T) {
	st := Stamp{Now: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), DateLayout: "2006-01-02"}
	job, err := NewJob("x", "http://a.com", st)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", job.DateAdded)

	job, err = NewJob("x", "http://a.com", Stamp{Now: st.Now})
	require.NoError(t, err)
	assert.Equal(t, "3/5/2026", job.DateAdded)
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", ErrRecruiterURLRequired)))
	assert.False(t, IsValidation(errors.New("other")))
	assert.Equal(t, "Please enter a contact URL", ErrRecruiterURLRequired.Error())
}
