// Package tab reads the browser tab the user is looking at.
package tab

import (
	"context"
	"errors"
	"strings"
)

// errors returned by queriers
var (
	ErrNoActiveTab = errors.New("no active tab")
	ErrUnavailable = errors.New("browser unavailable")
)

// Tab is the title and URL of a browser tab
type Tab struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Querier returns the currently active tab
type Querier interface {
	Active(ctx context.Context) (Tab, error)
}

// QuerierFunc adapts a function to Querier
type QuerierFunc func(ctx context.Context) (Tab, error)

// Active calls f
func (f QuerierFunc) Active(ctx context.Context) (Tab, error) { return f(ctx) }

// Static always returns the same tab, ErrNoActiveTab if its URL is blank
type Static Tab

// Active returns the static tab
func (s Static) Active(context.Context) (Tab, error) {
	t := Tab{Title: strings.TrimSpace(s.Title), URL: strings.TrimSpace(s.URL)}
	if t.URL == "" {
		return Tab{}, ErrNoActiveTab
	}
	return t, nil
}
