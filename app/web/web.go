// Package web implements the tracker UI: two tabbed panels for jobs and recruiters served as HTML with HTMX,
// plus a small JSON API for scripts and browser extensions.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/yura4350/jobtrack/app/prompt"
	"github.com/yura4350/jobtrack/app/store"
	"github.com/yura4350/jobtrack/app/tab"
	"github.com/yura4350/jobtrack/app/web/enums"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Tracker is the store the UI works on
type Tracker interface {
	Jobs() []store.Job
	Recruiters() []store.Recruiter
	Warnings() []string
	SaveJob(ctx context.Context, title, url string) (store.Job, error)
	SaveJobFromTab(ctx context.Context, q tab.Querier) (store.Job, error)
	SaveRecruiter(ctx context.Context, name, company, url string) (store.Recruiter, error)
	SaveRecruiterFromTab(ctx context.Context, q tab.Querier, p prompt.Prompter) (store.Recruiter, error)
	ClearJobs(ctx context.Context, c prompt.Confirmer) (bool, error)
	ClearRecruiters(ctx context.Context, c prompt.Confirmer) (bool, error)
}

// Server represents the web server
type Server struct {
	tracker        Tracker
	templates      map[string]*template.Template
	version        string
	passwordHash   string                      // bcrypt hash for basic auth
	tabEnabled     bool                        // whether "save current tab" can reach a browser
	csrfProtection *http.CrossOriginProtection // csrf protection for mutating endpoints
	limiter        *limiter.Limiter            // rate limit for mutating endpoints
}

// Config holds server configuration
type Config struct {
	Tracker        Tracker
	Version        string
	PasswordHash   string   // bcrypt hash for basic auth (empty to disable)
	TabEnabled     bool     // show "save current tab" buttons
	TrustedOrigins []string // origins allowed to post cross-origin, e.g. chrome-extension://<id>
	RateLimit      float64  // mutating requests per second per client, 0 for default
}

// TemplateData holds data for templates
type TemplateData struct {
	Panel           enums.Panel
	Jobs            []store.Job
	Recruiters      []store.Recruiter
	JobForm         JobForm
	RecruiterForm   RecruiterForm
	JobsError       string
	RecruitersError string
	Warnings        []string
	TabEnabled      bool
	AuthEnabled     bool
	Version         string
	CurrentYear     int
}

// JobForm keeps the job inputs, used to refill the form after a validation error
type JobForm struct {
	Title string
	URL   string
}

// RecruiterForm keeps the recruiter inputs
type RecruiterForm struct {
	Name    string
	Company string
	URL     string
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("web server initialization failed: Tracker is required")
	}

	csrfProtection := http.NewCrossOriginProtection()
	for _, origin := range cfg.TrustedOrigins {
		if err := csrfProtection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("web server initialization failed: bad trusted origin %q: %w", origin, err)
		}
	}

	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 10
	}
	lmt := tollbooth.NewLimiter(rate, nil)
	lmt.SetBurst(max(1, int(rate)))
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

	s := &Server{
		tracker:        cfg.Tracker,
		version:        cfg.Version,
		passwordHash:   cfg.PasswordHash,
		tabEnabled:     cfg.TabEnabled,
		csrfProtection: csrfProtection,
		limiter:        lmt,
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates
	return s, nil
}

// Run starts the web server and blocks until ctx is done
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(100),
		rest.AppInfo("jobtrack", "yura4350", s.version),
		rest.Ping,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for web UI")
		router.Use(s.authMiddleware)
	}

	router.HandleFunc("GET /", s.handleDashboard)

	// HTMX endpoints
	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)

		api.HandleFunc("GET /jobs", s.handleJobsPanel)
		api.HandleFunc("GET /recruiters", s.handleRecruitersPanel)
		api.HandleFunc("POST /panel", s.handlePanelSwitch)

		mutate := api.With(tollbooth.HTTPMiddleware(s.limiter))
		mutate.HandleFunc("POST /jobs", s.handleSaveJob)
		mutate.HandleFunc("POST /jobs/tab", s.handleSaveJobTab)
		mutate.HandleFunc("DELETE /jobs", s.handleClearJobs)
		mutate.HandleFunc("POST /jobs/clear", s.handleClearJobs)
		mutate.HandleFunc("POST /recruiters", s.handleSaveRecruiter)
		mutate.HandleFunc("POST /recruiters/tab", s.handleSaveRecruiterTab)
		mutate.HandleFunc("DELETE /recruiters", s.handleClearRecruiters)
		mutate.HandleFunc("POST /recruiters/clear", s.handleClearRecruiters)
	})

	// JSON API for scripts and extensions
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)
		api.HandleFunc("GET /status", s.handleAPIStatus)
		api.HandleFunc("GET /jobs", s.handleAPIJobs)
		api.HandleFunc("GET /recruiters", s.handleAPIRecruiters)
		api.With(tollbooth.HTTPMiddleware(s.limiter)).HandleFunc("POST /jobs", s.handleAPISaveJob)
		api.With(tollbooth.HTTPMiddleware(s.limiter)).HandleFunc("POST /recruiters", s.handleAPISaveRecruiter)
	})

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	return router
}

// render executes a named template of page into a buffer and writes it with status
func (s *Server) render(w http.ResponseWriter, status int, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template %s: %v", tmplName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"isPanel": func(current enums.Panel, name string) bool { return current.String() == name },
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templatesFS,
		"templates/base.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}
	templates["base.html"] = base

	partials, err := template.New("panels.html").Funcs(funcMap).ParseFS(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	templates["partials"] = partials

	return templates, nil
}

// newTemplateData fills the fields common to every page and partial
func (s *Server) newTemplateData(r *http.Request) TemplateData {
	return TemplateData{
		Panel:       s.getPanel(r),
		Jobs:        s.tracker.Jobs(),
		Recruiters:  s.tracker.Recruiters(),
		Warnings:    s.tracker.Warnings(),
		TabEnabled:  s.tabEnabled,
		AuthEnabled: s.passwordHash != "",
		Version:     s.version,
		CurrentYear: time.Now().Year(),
	}
}

// getPanel takes the panel from the query, then the cookie, defaulting to jobs
func (s *Server) getPanel(r *http.Request) enums.Panel {
	if v := r.URL.Query().Get("panel"); v != "" {
		if p, err := enums.ParsePanel(v); err == nil {
			return p
		}
		log.Printf("[WARN] invalid panel query %q", v)
	}
	cookie, err := r.Cookie("panel")
	if err != nil {
		return enums.PanelJobs
	}
	p, err := enums.ParsePanel(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid panel cookie %q: %v", cookie.Value, err)
		return enums.PanelJobs
	}
	return p
}

func (s *Server) setPanelCookie(w http.ResponseWriter, p enums.Panel) {
	http.SetCookie(w, &http.Cookie{
		Name:     "panel",
		Value:    p.String(),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
