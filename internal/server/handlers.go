package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmylchreest/postclean/internal/analyze"
	"github.com/jmylchreest/postclean/internal/version"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

// StatusPendingReview is returned when content could not be cleaned safely.
const StatusPendingReview = "pending_review"

// CleanRequest is the body of POST /v1/clean and POST /v1/analyze.
type CleanRequest struct {
	Content string `json:"content"`
	Preset  string `json:"preset,omitempty" validate:"omitempty,oneof=default minimal legacy"`
}

// CleanResponse is returned on success.
type CleanResponse struct {
	Content  string          `json:"content"`
	Issues   scrub.Counts    `json:"issues"`
	Warnings []scrub.Warning `json:"warnings,omitempty"`
}

// AnalyzeResponse is returned by POST /v1/analyze.
type AnalyzeResponse struct {
	NeedsCleaning bool         `json:"needs_cleaning"`
	Issues        scrub.Counts `json:"issues"`
	Residue       []string     `json:"residue,omitempty"`
}

// ErrorResponse is returned for every failure.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version.String()})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	name := req.Preset
	if name == "" {
		name = s.preset
	}
	result := s.cleaners[name].CleanWithStats(req.Content)
	if result.Error != nil {
		s.log.Warn("content held for review",
			"error", result.Error,
			"bytes", len(req.Content),
			"preset", name)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Status: StatusPendingReview,
			Error:  "content could not be cleaned safely",
		})
		return
	}

	issues := result.Stats.Issues
	if issues == nil {
		issues = scrub.Counts{}
	}
	writeJSON(w, http.StatusOK, CleanResponse{
		Content:  result.Content,
		Issues:   issues,
		Warnings: result.Warnings,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		NeedsCleaning: analyze.NeedsCleaning(req.Content),
		Issues:        analyze.Scan(req.Content),
		Residue:       analyze.Residue(req.Content),
	})
}

// decode reads and validates the request body, writing the error response
// itself when it fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (CleanRequest, bool) {
	var req CleanRequest

	body := r.Body
	if limit := s.cfg.MaxBodyBytes(); limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Status: "error", Error: "request body too large"})
			return req, false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Status: "error", Error: "invalid JSON body"})
		return req, false
	}

	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Status: "error", Error: err.Error()})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
