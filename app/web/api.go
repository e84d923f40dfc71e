package web

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/yura4350/jobtrack/app/store"
)

// APIStatusResponse is the JSON response for /api/v1/status
type APIStatusResponse struct {
	Jobs       int       `json:"jobs"`
	Recruiters int       `json:"recruiters"`
	Warnings   []string  `json:"warnings"`
	Backups    []string  `json:"backups"`
	Timestamp  time.Time `json:"timestamp"`
}

// APIJobRequest is the body of POST /api/v1/jobs
type APIJobRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// APIRecruiterRequest is the body of POST /api/v1/recruiters
type APIRecruiterRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	URL     string `json:"url"`
}

// handleAPIStatus returns counts for both lists
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	backups, err := s.tracker.Backups(r.Context())
	if err != nil {
		log.Printf("[ERROR] %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	resp := APIStatusResponse{
		Backups:    backups,
		Jobs:       len(s.tracker.Jobs()),
		Recruiters: len(s.tracker.Recruiters()),
		Warnings:   s.tracker.Warnings(),
		Timestamp:  time.Now(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleAPIJobs returns saved jobs, newest first
func (s *Server) handleAPIJobs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tracker.Jobs())
}

// handleAPIRecruiters returns saved recruiters, newest first
func (s *Server) handleAPIRecruiters(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tracker.Recruiters())
}

// handleAPISaveJob saves a job from a JSON body and returns the stored record
func (s *Server) handleAPISaveJob(w http.ResponseWriter, r *http.Request) {
	var req APIJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job, err := s.tracker.SaveJob(r.Context(), req.Title, req.URL)
	if err != nil {
		s.writeSaveError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, job)
}

// handleAPISaveRecruiter saves a recruiter from a JSON body and returns the stored record
func (s *Server) handleAPISaveRecruiter(w http.ResponseWriter, r *http.Request) {
	var req APIRecruiterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := s.tracker.SaveRecruiter(r.Context(), req.Name, req.Company, req.URL)
	if err != nil {
		s.writeSaveError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) writeSaveError(w http.ResponseWriter, err error) {
	if store.IsValidation(err) {
		s.writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	log.Printf("[ERROR] failed to save record: %v", err)
	s.writeJSONError(w, http.StatusInternalServerError, "failed to save record")
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
