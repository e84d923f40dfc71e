package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/yura4350/jobtrack/app/prompt"
	"github.com/yura4350/jobtrack/app/store"
	"github.com/yura4350/jobtrack/app/tab"
	"github.com/yura4350/jobtrack/app/tracker"
	"github.com/yura4350/jobtrack/app/web/enums"
)

// messages shown in the panel error area
const (
	msgNoTab           = "No active browser tab found."
	msgTabFailed       = "Could not read the active browser tab."
	msgConfirmRequired = "Nothing was deleted, confirmation is required."
	msgSaveFailed      = "Failed to save, see server logs."
	msgClearFailed     = "Failed to delete, see server logs."
)

// handleDashboard renders the main page. Query values title, url, name and company prefill the
// active panel's form, so a bookmarklet can pass the page being viewed.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := s.newTemplateData(r)
	q := r.URL.Query()
	switch data.Panel {
	case enums.PanelRecruiters:
		data.RecruiterForm = RecruiterForm{Name: q.Get("name"), Company: q.Get("company"), URL: q.Get("url")}
	default:
		data.JobForm = JobForm{Title: q.Get("title"), URL: q.Get("url")}
	}
	s.render(w, http.StatusOK, "base.html", "base", data)
}

// handleJobsPanel returns the jobs panel partial
func (s *Server) handleJobsPanel(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "partials", "jobs-panel", s.newTemplateData(r))
}

// handleRecruitersPanel returns the recruiters panel partial
func (s *Server) handleRecruitersPanel(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "partials", "recruiters-panel", s.newTemplateData(r))
}

// handlePanelSwitch makes the posted panel active and remembers it in a cookie
func (s *Server) handlePanelSwitch(w http.ResponseWriter, r *http.Request) {
	p, err := enums.ParsePanel(r.FormValue("panel"))
	if err != nil {
		log.Printf("[WARN] invalid panel %q: %v", r.FormValue("panel"), err)
		p = enums.PanelJobs
	}
	s.setPanelCookie(w, p)

	if !isHTMX(r) {
		http.Redirect(w, r, "/?panel="+p.String(), http.StatusSeeOther)
		return
	}
	data := s.newTemplateData(r)
	data.Panel = p
	s.render(w, http.StatusOK, "partials", "panels", data)
}

// handleSaveJob saves a job from the form
func (s *Server) handleSaveJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := JobForm{Title: r.FormValue("title"), URL: r.FormValue("url")}

	_, err := s.tracker.SaveJob(r.Context(), form.Title, form.URL)
	s.respondJobs(w, r, form, err)
}

// handleSaveJobTab saves the active browser tab as a job.
// Form values url and title, if present, stand in for the browser.
func (s *Server) handleSaveJobTab(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	_, err := s.tracker.SaveJobFromTab(r.Context(), requestTab(r))
	s.respondJobs(w, r, JobForm{}, err)
}

// handleClearJobs deletes all jobs if the request carries confirm=yes
func (s *Server) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.tracker.ClearJobs(r.Context(), requestConfirmer(r))
	if err == nil && !cleared {
		s.respondPanel(w, r, http.StatusConflict, enums.PanelJobs, func(d *TemplateData) {
			d.JobsError = msgConfirmRequired
		})
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to clear jobs: %v", err)
		s.respondPanel(w, r, http.StatusInternalServerError, enums.PanelJobs, func(d *TemplateData) {
			d.JobsError = msgClearFailed
		})
		return
	}
	s.respondPanel(w, r, http.StatusOK, enums.PanelJobs, nil)
}

// handleSaveRecruiter saves a recruiter from the form
func (s *Server) handleSaveRecruiter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := RecruiterForm{Name: r.FormValue("name"), Company: r.FormValue("company"), URL: r.FormValue("url")}

	_, err := s.tracker.SaveRecruiter(r.Context(), form.Name, form.Company, form.URL)
	s.respondRecruiters(w, r, form, err)
}

// handleSaveRecruiterTab saves the active tab's URL as a recruiter. The name comes from the HX-Prompt
// header (hx-prompt in the page) or the name form value, company from the form.
func (s *Server) handleSaveRecruiterTab(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	name := promptValue(r)
	if name == "" {
		name = r.FormValue("name")
	}
	answers := &prompt.Fixed{}
	if strings.TrimSpace(name) != "" {
		answers.Answers = []string{strings.TrimSpace(name), r.FormValue("company")}
	}

	_, err := s.tracker.SaveRecruiterFromTab(r.Context(), requestTab(r), answers)
	if errors.Is(err, tracker.ErrCancelled) {
		err = store.ErrRecruiterNameRequired
	}
	s.respondRecruiters(w, r, RecruiterForm{Company: r.FormValue("company")}, err)
}

// handleClearRecruiters deletes all recruiters if the request carries confirm=yes
func (s *Server) handleClearRecruiters(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.tracker.ClearRecruiters(r.Context(), requestConfirmer(r))
	if err == nil && !cleared {
		s.respondPanel(w, r, http.StatusConflict, enums.PanelRecruiters, func(d *TemplateData) {
			d.RecruitersError = msgConfirmRequired
		})
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to clear recruiters: %v", err)
		s.respondPanel(w, r, http.StatusInternalServerError, enums.PanelRecruiters, func(d *TemplateData) {
			d.RecruitersError = msgClearFailed
		})
		return
	}
	s.respondPanel(w, r, http.StatusOK, enums.PanelRecruiters, nil)
}

// respondJobs maps a save result to the jobs panel, keeping the form inputs on failure
func (s *Server) respondJobs(w http.ResponseWriter, r *http.Request, form JobForm, err error) {
	status, msg := saveResult(err)
	s.respondPanel(w, r, status, enums.PanelJobs, func(d *TemplateData) {
		d.JobsError = msg
		if err != nil {
			d.JobForm = form
		}
	})
}

// respondRecruiters maps a save result to the recruiters panel
func (s *Server) respondRecruiters(w http.ResponseWriter, r *http.Request, form RecruiterForm, err error) {
	status, msg := saveResult(err)
	s.respondPanel(w, r, status, enums.PanelRecruiters, func(d *TemplateData) {
		d.RecruitersError = msg
		if err != nil {
			d.RecruiterForm = form
		}
	})
}

// respondPanel renders the panel partial for HTMX requests. Plain form posts get a redirect
// back to the dashboard on success or the full page with the error otherwise.
func (s *Server) respondPanel(w http.ResponseWriter, r *http.Request, status int, p enums.Panel, fill func(*TemplateData)) {
	if !isHTMX(r) && status == http.StatusOK {
		http.Redirect(w, r, "/?panel="+url.QueryEscape(p.String()), http.StatusSeeOther)
		return
	}

	data := s.newTemplateData(r)
	data.Panel = p
	if fill != nil {
		fill(&data)
	}
	if !isHTMX(r) {
		s.render(w, status, "base.html", "base", data)
		return
	}
	s.render(w, status, "partials", p.String()+"-panel", data)
}

// saveResult turns a tracker error into a status code and a user message
func saveResult(err error) (status int, msg string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case store.IsValidation(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, tab.ErrNoActiveTab):
		return http.StatusUnprocessableEntity, msgNoTab
	case errors.Is(err, tracker.ErrCancelled):
		return http.StatusUnprocessableEntity, store.ErrRecruiterNameRequired.Error()
	}
	if errors.Is(err, tab.ErrUnavailable) {
		log.Printf("[WARN] %v", err)
		return http.StatusBadGateway, msgTabFailed
	}
	log.Printf("[ERROR] failed to save: %v", err)
	return http.StatusInternalServerError, msgSaveFailed
}

// requestTab returns a static tab if the request names one, nil to use the browser
func requestTab(r *http.Request) tab.Querier {
	if strings.TrimSpace(r.FormValue("url")) == "" {
		return nil
	}
	return tab.Static{Title: r.FormValue("title"), URL: r.FormValue("url")}
}

// requestConfirmer reports the confirmation sent with the request, hx-confirm in the page adds confirm=yes
func requestConfirmer(r *http.Request) prompt.Confirmer {
	return &prompt.Fixed{Yes: strings.EqualFold(r.FormValue("confirm"), "yes")}
}

// promptValue returns the text entered for hx-prompt
func promptValue(r *http.Request) string {
	return r.Header.Get("HX-Prompt")
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
