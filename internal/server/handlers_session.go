package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/analysis"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/routine"
	"github.com/meltforce/ironlog/internal/session"
)

type sessionView struct {
	State   session.State   `json:"state"`
	Workout *models.Workout `json:"workout,omitempty"`
}

type finishResponse struct {
	Workout  models.Workout     `json:"workout"`
	Insights *analysis.Insights `json:"insights,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func viewOf(sess *session.Session) sessionView {
	v := sessionView{State: sess.State()}
	if w, ok := sess.Active(); ok {
		v.Workout = &w
	}
	return v
}

func (s *Server) userSession(r *http.Request) *session.Session {
	return s.Sessions.For(userIDFromContext(r))
}

func (s *Server) trackActive() {
	if s.Metrics != nil {
		s.Metrics.GaugeActiveSessions.Set(float64(s.Sessions.ActiveCount()))
	}
}

// notApplied explains why a structural edit was ignored.
func notApplied(w http.ResponseWriter, sess *session.Session) {
	switch sess.State() {
	case session.StateIdle:
		writeJSON(w, http.StatusConflict, map[string]string{"error": session.ErrNoActiveWorkout.Error()})
	case session.StateFinishing:
		writeJSON(w, http.StatusConflict, map[string]string{"error": session.ErrFinishInProgress.Error()})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise or set not found in active workout"})
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(s.userSession(r)))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	workout, err := s.userSession(r).StartEmpty(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.trackActive()
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleStartRoutine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoutineID string `json:"routine_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.RoutineID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "routine_id is required"})
		return
	}
	uid := userIDFromContext(r)
	rt, err := s.Routines.Get(r.Context(), uid, req.RoutineID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	all, err := s.Catalog.All(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lookup := make(map[string]models.Exercise, len(all))
	for _, e := range all {
		lookup[e.ID] = e
	}

	workout, err := s.Sessions.For(uid).StartFromRoutine(routine.Resolve(rt, lookup))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Routines.MarkUsed(r.Context(), uid, rt.ID)
	s.trackActive()
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := s.userSession(r)
	if !sess.UpdateName(req.Name) {
		if sess.State() == session.StateActive {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}
		notApplied(w, sess)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	start := time.Now()
	completed, err := s.Sessions.For(uid).Finish(r.Context())
	if errors.Is(err, session.ErrNoActiveWorkout) || errors.Is(err, session.ErrFinishInProgress) {
		s.writeError(w, r, err)
		return
	}
	s.trackActive()
	if s.Metrics != nil {
		s.Metrics.HistFinishDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.CounterWorkoutsFinished.WithLabelValues("failed").Inc()
		}
		s.Log.Error("finishing workout", "user_id", uid, "workout_id", completed.ID, "error", err)
		writeJSON(w, statusFor(err), finishResponse{Workout: completed, Error: err.Error()})
		return
	}
	if s.Metrics != nil {
		s.Metrics.CounterWorkoutsFinished.WithLabelValues("saved").Inc()
	}

	resp := finishResponse{Workout: completed}
	if ws, err := s.History.List(r.Context(), uid); err == nil {
		in := analysis.Summarize(completed, ws)
		resp.Insights = &in
	} else {
		s.Log.Warn("loading history for insights", "user_id", uid, "error", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sess := s.userSession(r)
	if !sess.Cancel() {
		notApplied(w, sess)
		return
	}
	s.trackActive()
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExerciseID string `json:"exercise_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	uid := userIDFromContext(r)
	e, err := s.Catalog.Get(r.Context(), uid, req.ExerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := s.Sessions.For(uid)
	ex, ok := sess.AddExercise(e)
	if !ok {
		notApplied(w, sess)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	sess := s.userSession(r)
	if !sess.RemoveExercise(chi.URLParam(r, "id")) {
		notApplied(w, sess)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	sess := s.userSession(r)
	set, ok := sess.AddSet(chi.URLParam(r, "id"))
	if !ok {
		notApplied(w, sess)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	var u session.SetUpdate
	if err := decodeJSON(r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	if u.Type != nil && !u.Type.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown set type " + string(*u.Type)})
		return
	}
	sess := s.userSession(r)
	id, setID := chi.URLParam(r, "id"), chi.URLParam(r, "setID")
	ok, err := sess.UpdateSet(id, setID, u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		notApplied(w, sess)
		return
	}
	s.writeSet(w, sess, id, setID)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	sess := s.userSession(r)
	if !sess.RemoveSet(chi.URLParam(r, "id"), chi.URLParam(r, "setID")) {
		notApplied(w, sess)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	sess := s.userSession(r)
	id, setID := chi.URLParam(r, "id"), chi.URLParam(r, "setID")
	if !sess.CompleteSet(id, setID) {
		notApplied(w, sess)
		return
	}
	s.writeSet(w, sess, id, setID)
}

// writeSet responds with the current state of one set of the active workout.
func (s *Server) writeSet(w http.ResponseWriter, sess *session.Session, instanceID, setID string) {
	active, ok := sess.Active()
	if ok {
		if ex := active.ExerciseByInstance(instanceID); ex != nil {
			if set := ex.SetByID(setID); set != nil {
				writeJSON(w, http.StatusOK, set)
				return
			}
		}
	}
	notApplied(w, sess)
}
