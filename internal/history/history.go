// Package history keeps each user's log of completed workouts: the remote
// backend is authoritative, a per-user in-memory cache answers reads and a
// local mirror keeps the last fetched copy across restarts.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/meltforce/ironlog/internal/models"
)

// Backend is the remote History source.
type Backend interface {
	ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error)
	SaveWorkout(ctx context.Context, userID int, w models.Workout) error
	DeleteWorkout(ctx context.Context, userID int, id string) error
	RenameWorkout(ctx context.Context, userID int, id, name string) error
}

// Mirror stores a user's cached history locally.
type Mirror interface {
	SaveHistory(userID int, workouts []models.Workout) error
	LoadHistory(userID int) ([]models.Workout, error)
}

// Service serves History reads from cache and forwards writes to the backend.
type Service struct {
	backend  Backend
	mirror   Mirror
	onChange func(userID int)
	log      *slog.Logger

	mu      sync.RWMutex
	cache   map[int][]models.Workout
	loaded  map[int]bool
	version map[int]uint64
}

// New creates a Service. mirror may be nil. onChange, if set, is called after
// every change to a user's history.
func New(backend Backend, mirror Mirror, onChange func(userID int), log *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		mirror:   mirror,
		onChange: onChange,
		log:      log,
		cache:    make(map[int][]models.Workout),
		loaded:   make(map[int]bool),
		version:  make(map[int]uint64),
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *models.PersistenceError
	if errors.As(err, &pe) || errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidInput) {
		return err
	}
	return models.Persistence(op, err)
}

func newestFirst(ws []models.Workout) {
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].StartTime.After(ws[j].StartTime) })
}

// publish mirrors ws and fires onChange. Callers must not hold s.mu.
func (s *Service) publish(userID int, ws []models.Workout, mirror bool) {
	if mirror && s.mirror != nil {
		if err := s.mirror.SaveHistory(userID, ws); err != nil {
			s.log.Warn("mirroring history", "user_id", userID, "error", err)
		}
	}
	if s.onChange != nil {
		s.onChange(userID)
	}
}

// mutate applies fn to userID's cache under one lock. An unloaded cache is
// left unloaded so the next List fetches the full history from the backend.
func (s *Service) mutate(userID int, fn func([]models.Workout) []models.Workout) {
	s.mu.Lock()
	s.version[userID]++
	var ws []models.Workout
	loaded := s.loaded[userID]
	if loaded {
		ws = fn(s.cache[userID])
		s.cache[userID] = ws
		ws = append([]models.Workout(nil), ws...)
	}
	s.mu.Unlock()

	s.publish(userID, ws, loaded)
}

func (s *Service) snapshot(userID int) ([]models.Workout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded[userID] {
		return nil, false
	}
	return append([]models.Workout(nil), s.cache[userID]...), true
}

// Fetch reloads userID's history from the backend, newest first. A result
// that raced with a local change is returned but not cached.
func (s *Service) Fetch(ctx context.Context, userID int) ([]models.Workout, error) {
	s.mu.RLock()
	v := s.version[userID]
	s.mu.RUnlock()

	ws, err := s.backend.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, wrap("fetching history", err)
	}
	newestFirst(ws)

	s.mu.Lock()
	cached := s.version[userID] == v
	if cached {
		s.cache[userID] = ws
		s.loaded[userID] = true
	}
	s.mu.Unlock()

	out := append([]models.Workout(nil), ws...)
	if cached {
		s.publish(userID, out, true)
	}
	return out, nil
}

// List returns the cached history, fetching it on first use. If the backend
// is unreachable the local mirror is served instead. The returned slice is a
// copy; the workouts in it must be treated as read-only.
func (s *Service) List(ctx context.Context, userID int) ([]models.Workout, error) {
	if ws, ok := s.snapshot(userID); ok {
		return ws, nil
	}
	ws, err := s.Fetch(ctx, userID)
	if err == nil {
		return ws, nil
	}
	if s.mirror != nil {
		mirrored, merr := s.mirror.LoadHistory(userID)
		if merr == nil && mirrored != nil {
			s.log.Warn("serving mirrored history", "user_id", userID, "error", err)
			return mirrored, nil
		}
	}
	return nil, err
}

// Get returns one workout by id.
func (s *Service) Get(ctx context.Context, userID int, id string) (models.Workout, error) {
	ws, err := s.List(ctx, userID)
	if err != nil {
		return models.Workout{}, err
	}
	for _, w := range ws {
		if w.ID == id {
			return w, nil
		}
	}
	return models.Workout{}, fmt.Errorf("workout %s: %w", id, models.ErrNotFound)
}

// Last returns the most recently started workout.
func (s *Service) Last(ctx context.Context, userID int) (models.Workout, bool, error) {
	ws, err := s.List(ctx, userID)
	if err != nil || len(ws) == 0 {
		return models.Workout{}, false, err
	}
	return ws[0], true, nil
}

// Append persists a completed workout and adds it to the cache.
func (s *Service) Append(ctx context.Context, userID int, w models.Workout) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := s.backend.SaveWorkout(ctx, userID, w); err != nil {
		return wrap("saving workout", err)
	}
	s.mutate(userID, func(cached []models.Workout) []models.Workout {
		ws := make([]models.Workout, 0, len(cached)+1)
		ws = append(ws, w)
		for _, c := range cached {
			if c.ID != w.ID {
				ws = append(ws, c)
			}
		}
		newestFirst(ws)
		return ws
	})
	return nil
}

// Delete removes a workout from the backend and the cache.
func (s *Service) Delete(ctx context.Context, userID int, id string) error {
	if err := s.backend.DeleteWorkout(ctx, userID, id); err != nil {
		return wrap("deleting workout", err)
	}
	s.mutate(userID, func(cached []models.Workout) []models.Workout {
		kept := make([]models.Workout, 0, len(cached))
		for _, w := range cached {
			if w.ID != id {
				kept = append(kept, w)
			}
		}
		return kept
	})
	return nil
}

// Rename changes a workout's name in the backend and the cache.
func (s *Service) Rename(ctx context.Context, userID int, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("workout name is required: %w", models.ErrInvalidInput)
	}
	if err := s.backend.RenameWorkout(ctx, userID, id, name); err != nil {
		return wrap("renaming workout", err)
	}
	s.mutate(userID, func(cached []models.Workout) []models.Workout {
		ws := append([]models.Workout(nil), cached...)
		for i := range ws {
			if ws[i].ID == id {
				ws[i].Name = name
			}
		}
		return ws
	})
	return nil
}

// Clear drops the local cache and mirror for userID. The backend is untouched.
func (s *Service) Clear(userID int) {
	s.mu.Lock()
	delete(s.cache, userID)
	delete(s.loaded, userID)
	s.version[userID]++
	s.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.SaveHistory(userID, nil); err != nil {
			s.log.Warn("clearing mirrored history", "user_id", userID, "error", err)
		}
	}
	if s.onChange != nil {
		s.onChange(userID)
	}
}
