// Package dashboard manages each user's ordered list of graphs and renders
// them against the user's history.
package dashboard

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/ironlog/internal/analytics"
	"github.com/meltforce/ironlog/internal/models"
)

// Store keeps graph configurations in local storage.
type Store interface {
	LoadGraphs(userID int) ([]models.GraphConfig, error)
	SaveGraphs(userID int, graphs []models.GraphConfig) error
}

// Patch holds the graph fields to change. Nil fields are kept.
type Patch struct {
	Title      *string           `json:"title,omitempty"`
	TimeRange  *models.TimeRange `json:"time_range,omitempty"`
	ExerciseID *string           `json:"exercise_id,omitempty"`
}

// Service edits graph lists. Each edit is a load-modify-save under one lock.
type Service struct {
	store Store
	log   *slog.Logger
	mu    sync.Mutex
}

// New creates a Service over store.
func New(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) load(userID int) ([]models.GraphConfig, error) {
	gs, err := s.store.LoadGraphs(userID)
	if err != nil {
		return nil, fmt.Errorf("loading graphs: %w", err)
	}
	if gs == nil {
		gs = []models.GraphConfig{}
	}
	return gs, nil
}

func (s *Service) save(userID int, gs []models.GraphConfig) error {
	if err := s.store.SaveGraphs(userID, gs); err != nil {
		return fmt.Errorf("saving graphs: %w", err)
	}
	return nil
}

// List returns userID's graphs in display order.
func (s *Service) List(userID int) ([]models.GraphConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID)
}

func checkExercise(t models.GraphType, exerciseID string) error {
	if t == models.GraphExerciseProgress && strings.TrimSpace(exerciseID) == "" {
		return fmt.Errorf("%s graph needs an exercise: %w", t, models.ErrInvalidInput)
	}
	return nil
}

// Add appends a graph of type t with its default title and a 30 day range.
// Exercise progress graphs need an exercise.
func (s *Service) Add(userID int, t models.GraphType, exerciseID string) (models.GraphConfig, error) {
	if _, err := models.ParseGraphType(string(t)); err != nil {
		return models.GraphConfig{}, err
	}
	if err := checkExercise(t, exerciseID); err != nil {
		return models.GraphConfig{}, err
	}
	g := models.GraphConfig{
		ID:         uuid.NewString(),
		Type:       t,
		Title:      t.DefaultTitle(),
		TimeRange:  models.DefaultTimeRange,
		ExerciseID: exerciseID,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	gs, err := s.load(userID)
	if err != nil {
		return models.GraphConfig{}, err
	}
	if err := s.save(userID, append(gs, g)); err != nil {
		return models.GraphConfig{}, err
	}
	s.log.Debug("graph added", "user_id", userID, "graph_id", g.ID, "type", t)
	return g, nil
}

// Remove deletes one graph.
func (s *Service) Remove(userID int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, err := s.load(userID)
	if err != nil {
		return err
	}
	kept := make([]models.GraphConfig, 0, len(gs))
	for _, g := range gs {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(gs) {
		return fmt.Errorf("graph %s: %w", id, models.ErrNotFound)
	}
	return s.save(userID, kept)
}

// Update applies p to one graph.
func (s *Service) Update(userID int, id string, p Patch) (models.GraphConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, err := s.load(userID)
	if err != nil {
		return models.GraphConfig{}, err
	}
	for i := range gs {
		if gs[i].ID != id {
			continue
		}
		g := gs[i]
		if p.Title != nil {
			if title := strings.TrimSpace(*p.Title); title != "" {
				g.Title = title
			}
		}
		if p.TimeRange != nil {
			g.TimeRange = *p.TimeRange
		}
		if p.ExerciseID != nil {
			g.ExerciseID = *p.ExerciseID
		}
		if err := g.Validate(); err != nil {
			return models.GraphConfig{}, err
		}
		if p.ExerciseID != nil {
			if err := checkExercise(g.Type, g.ExerciseID); err != nil {
				return models.GraphConfig{}, err
			}
		}
		gs[i] = g
		return g, s.save(userID, gs)
	}
	return models.GraphConfig{}, fmt.Errorf("graph %s: %w", id, models.ErrNotFound)
}

// Reorder rearranges the graphs to match ids, which must name every graph
// exactly once.
func (s *Service) Reorder(userID int, ids []string) ([]models.GraphConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(gs) {
		return nil, fmt.Errorf("reorder lists %d graphs, have %d: %w", len(ids), len(gs), models.ErrInvalidInput)
	}
	byID := make(map[string]models.GraphConfig, len(gs))
	for _, g := range gs {
		byID[g.ID] = g
	}
	out := make([]models.GraphConfig, 0, len(ids))
	for _, id := range ids {
		g, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("reorder names unknown or repeated graph %s: %w", id, models.ErrInvalidInput)
		}
		delete(byID, id)
		out = append(out, g)
	}
	return out, s.save(userID, out)
}

// Chart is one rendered dashboard graph.
type Chart struct {
	Graph models.GraphConfig `json:"graph"`
	Data  models.ChartSeries `json:"data"`
}

// Render builds every graph against history, going through cache.
func Render(userID int, graphs []models.GraphConfig, history []models.Workout, now time.Time, cache *analytics.Cache) []Chart {
	out := make([]Chart, 0, len(graphs))
	for _, g := range graphs {
		out = append(out, Chart{Graph: g, Data: cache.Chart(userID, g, history, now)})
	}
	return out
}
