package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rewired-gh/bodyweight-dash/internal/logger"
	"github.com/rewired-gh/bodyweight-dash/internal/models"
	"github.com/rewired-gh/bodyweight-dash/internal/render"
	"github.com/rewired-gh/bodyweight-dash/internal/selection"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string `json:"status"`
	DatasetID string `json:"dataset_id"`
	Source    string `json:"source"`
	Records   int    `json:"records"`
	Subjects  int    `json:"subjects"`
	Groups    int    `json:"groups"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// filterFromRequest reads ?mode= and ?target=. A missing target leaves the
// filter unresolved, which renders as an empty chart.
func (s *Server) filterFromRequest(req *http.Request) (models.Filter, error) {
	q := req.URL.Query()
	return selection.Resolve(s.dataset, q.Get("mode"), q.Get("target"))
}

func (s *Server) handleOptions(w http.ResponseWriter, req *http.Request) {
	mode, err := selection.ParseMode(req.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, selection.Options(s.dataset, mode))
}

func (s *Server) handleChart(w http.ResponseWriter, req *http.Request) {
	f, err := s.filterFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.builder.Render(s.dataset, f))
}

func (s *Server) handleAggregates(w http.ResponseWriter, req *http.Request) {
	f, err := s.filterFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.builder.Aggregate(s.dataset, f))
}

func (s *Server) handleChartImage(w http.ResponseWriter, req *http.Request) {
	format, err := render.ParseFormat(mux.Vars(req)["format"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	f, err := s.filterFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, s.builder.Render(s.dataset, f), format); err != nil {
		logger.Error("Failed to render %s chart for %s: %v", format, f, err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to render chart"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		DatasetID: s.dataset.ID,
		Source:    s.dataset.Source,
		Records:   s.dataset.Len(),
		Subjects:  len(s.dataset.Subjects()),
		Groups:    len(s.dataset.Groups()),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, req *http.Request) {
	page, err := fs.ReadFile(s.assets, "index.html")
	if err != nil {
		logger.Error("Failed to read index page: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("index page unavailable"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
