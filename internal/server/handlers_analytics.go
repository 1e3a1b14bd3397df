package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/dashboard"
	"github.com/meltforce/ironlog/internal/models"
)

// handleChart builds one ad-hoc chart without touching the dashboard.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	t, err := models.ParseGraphType(chi.URLParam(r, "type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tr, err := models.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	uid := userIDFromContext(r)
	ws, err := s.History.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg := models.GraphConfig{
		Type:       t,
		Title:      t.DefaultTitle(),
		TimeRange:  tr,
		ExerciseID: r.URL.Query().Get("exercise_id"),
	}
	writeJSON(w, http.StatusOK, dashboard.Chart{Graph: cfg, Data: s.Cache.Chart(uid, cfg, ws, s.Now())})
}

func (s *Server) handleGraphTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.GraphTypes)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	graphs, err := s.Dashboard.List(uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.History.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Render(uid, graphs, ws, s.Now(), s.Cache))
}

func (s *Server) handleAddGraph(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string `json:"type"`
		ExerciseID string `json:"exercise_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := models.ParseGraphType(req.Type)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.Dashboard.Add(userIDFromContext(r), t, req.ExerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateGraph(w http.ResponseWriter, r *http.Request) {
	var p dashboard.Patch
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.Dashboard.Update(userIDFromContext(r), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleRemoveGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.Dashboard.Remove(userIDFromContext(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderGraphs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	graphs, err := s.Dashboard.Reorder(userIDFromContext(r), req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graphs)
}
