// Package enums provides type-safe enumerations for the web interface.
package enums

import (
	"fmt"
	"strings"
)

// Panel is one of the two tabbed panels of the dashboard
type Panel struct {
	name string
}

// panels
var (
	PanelJobs       = Panel{name: "jobs"}
	PanelRecruiters = Panel{name: "recruiters"}
)

// PanelValues lists all panels in display order
func PanelValues() []Panel { return []Panel{PanelJobs, PanelRecruiters} }

// String returns the panel name used in URLs and cookies
func (p Panel) String() string { return p.name }

// ParsePanel parses a panel name, case-insensitive
func ParsePanel(v string) (Panel, error) {
	for _, p := range PanelValues() {
		if strings.EqualFold(v, p.name) {
			return p, nil
		}
	}
	return Panel{}, fmt.Errorf("invalid panel %q", v)
}
