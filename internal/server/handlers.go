package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/ironlog/internal/ingest"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/storage"
)

// maxBodyBytes caps JSON request bodies. CSV imports get importBodyBytes.
const (
	maxBodyBytes    = 1 << 20
	importBodyBytes = 32 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: %v: %w", err, models.ErrInvalidInput)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrWorkoutActive),
		errors.Is(err, session.ErrNoActiveWorkout),
		errors.Is(err, session.ErrFinishInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrPersistence):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError maps err onto a status code and logs server-side failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, models.Persistence("loading stats", err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.Store.ListPersonalRecords(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, models.Persistence("listing personal records", err))
		return
	}
	if records == nil {
		records = []models.PersonalRecordRow{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	if s.Importer == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "import is not configured"})
		return
	}
	uid := userIDFromContext(r)
	start := time.Now()
	result, err := s.Importer.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, importBodyBytes), uid)
	s.recordImport(r.Context(), uid, "alpha", time.Since(start), result, err)
	if err != nil {
		s.Log.Warn("alpha import failed", "user_id", uid, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if s.Metrics != nil {
		s.Metrics.CounterWorkoutsImported.Add(float64(result.WorkoutsImported))
	}
	s.Log.Info("alpha import", "user_id", uid, "imported", result.WorkoutsImported, "failed", result.WorkoutsFailed)
	writeJSON(w, http.StatusOK, result)
}

// recordImport writes the import log. Failing to write it does not fail the import.
func (s *Server) recordImport(ctx context.Context, uid int, source string, took time.Duration, result *ingest.Result, err error) {
	ms := int(took.Milliseconds())
	entry := storage.ImportLog{UserID: uid, Source: source, Status: storage.ImportSucceeded, DurationMs: &ms}
	if result != nil {
		entry.WorkoutsReceived = result.WorkoutsReceived
		entry.WorkoutsImported = result.WorkoutsImported
		entry.WorkoutsFailed = result.WorkoutsFailed
		entry.SetsImported = result.SetsImported
		entry.Volume = result.Volume
		if result.WorkoutsFailed > 0 {
			entry.Status = storage.ImportPartial
		}
	}
	if err != nil {
		msg := err.Error()
		entry.Status, entry.ErrorMessage = storage.ImportFailed, &msg
	}
	if _, lerr := s.Store.InsertImportLog(ctx, entry); lerr != nil {
		s.Log.Warn("recording import log", "user_id", uid, "error", lerr)
	}
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	logs, err := s.Store.ListImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.writeError(w, r, models.Persistence("listing imports", err))
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
