package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/routine"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var muscle models.MuscleGroup
	if m := q.Get("muscle"); m != "" {
		mg, err := models.ParseMuscleGroup(m)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		muscle = mg
	}
	exercises, err := s.Catalog.Find(r.Context(), userIDFromContext(r), q.Get("q"), muscle)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleAddExerciseToCatalog(w http.ResponseWriter, r *http.Request) {
	var e models.Exercise
	if err := decodeJSON(r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.Catalog.Add(r.Context(), userIDFromContext(r), e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := s.Routines.List(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if routines == nil {
		routines = []models.Routine{}
	}
	writeJSON(w, http.StatusOK, routines)
}

func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	var d routine.Draft
	if err := decodeJSON(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	rt, err := s.Routines.Create(r.Context(), userIDFromContext(r), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	rt, err := s.Routines.Get(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) handleUpdateRoutine(w http.ResponseWriter, r *http.Request) {
	var p routine.Patch
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	rt, err := s.Routines.Update(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	if err := s.Routines.Delete(r.Context(), userIDFromContext(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateRoutine(w http.ResponseWriter, r *http.Request) {
	rt, err := s.Routines.Duplicate(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}
