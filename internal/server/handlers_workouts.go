package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/analysis"
	"github.com/meltforce/ironlog/internal/models"
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	var (
		ws  []models.Workout
		err error
	)
	if r.URL.Query().Get("refresh") == "true" {
		ws, err = s.History.Fetch(r.Context(), uid)
	} else {
		ws, err = s.History.List(r.Context(), uid)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ws == nil {
		ws = []models.Workout{}
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workout, err := s.History.Get(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleWorkoutInsights(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	ws, err := s.History.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	for _, workout := range ws {
		if workout.ID == id {
			writeJSON(w, http.StatusOK, analysis.Summarize(workout, ws))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout " + id + " not found"})
}

func (s *Server) handleRenameWorkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	uid := userIDFromContext(r)
	id := chi.URLParam(r, "id")
	if err := s.History.Rename(r.Context(), uid, id, req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	workout, err := s.History.Get(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	if err := s.History.Delete(r.Context(), userIDFromContext(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
