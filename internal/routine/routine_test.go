package routine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltforce/ironlog/internal/models"
)

type memStore struct {
	routines map[string]models.Routine
	used     map[string]time.Time
	err      error
}

func newMemStore() *memStore {
	return &memStore{routines: map[string]models.Routine{}, used: map[string]time.Time{}}
}

func (m *memStore) ListRoutines(_ context.Context, userID int) ([]models.Routine, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Routine
	for _, r := range m.routines {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetRoutine(_ context.Context, userID int, id string) (models.Routine, error) {
	if m.err != nil {
		return models.Routine{}, m.err
	}
	r, ok := m.routines[id]
	if !ok || r.UserID != userID {
		return models.Routine{}, models.ErrNotFound
	}
	return r, nil
}

func (m *memStore) InsertRoutine(_ context.Context, r models.Routine) error {
	m.routines[r.ID] = r
	return m.err
}

func (m *memStore) UpdateRoutine(_ context.Context, r models.Routine) error {
	m.routines[r.ID] = r
	return m.err
}

func (m *memStore) DeleteRoutine(_ context.Context, userID int, id string) error {
	if _, ok := m.routines[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.routines, id)
	return nil
}

func (m *memStore) MarkRoutineUsed(_ context.Context, _ int, id string, at time.Time) error {
	m.used[id] = at
	return nil
}

type fixture struct {
	svc   *Service
	store *memStore
	now   time.Time
}

func newFixture() *fixture {
	f := &fixture{store: newMemStore(), now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = New(f.store, func() time.Time { return f.now }, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func sets(n int) *int { return &n }

func TestCreateNormalizesExercises(t *testing.T) {
	f := newFixture()
	r, err := f.svc.Create(context.Background(), 1, Draft{
		Name: " Push Day ",
		Exercises: []models.RoutineExercise{
			{ExerciseID: "1", Order: 5, TargetSets: sets(3)},
			{ExerciseID: "3", Order: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Push Day", r.Name)
	assert.Equal(t, 1, r.UserID)
	assert.Equal(t, f.now, r.CreatedAt)
	require.Len(t, r.Exercises, 2)
	assert.Equal(t, 0, r.Exercises[0].Order)
	assert.Equal(t, 1, r.Exercises[1].Order)
	assert.NotEmpty(t, r.Exercises[0].ID)
	assert.Equal(t, "3", r.Exercises[1].Exercise.ID)
}

func TestCreateValidates(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), 1, Draft{Name: "  "})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = f.svc.Create(context.Background(), 1, Draft{Name: "Bad", Exercises: []models.RoutineExercise{{TargetSets: sets(2)}}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, f.store.routines)
}

func TestUpdateBumpsUpdatedAt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r, err := f.svc.Create(ctx, 1, Draft{Name: "Legs"})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	name := "Heavy Legs"
	got, err := f.svc.Update(ctx, 1, r.ID, Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Heavy Legs", got.Name)
	assert.Equal(t, r.CreatedAt, got.CreatedAt)
	assert.Equal(t, f.now, got.UpdatedAt)

	_, err = f.svc.Update(ctx, 2, r.ID, Patch{Name: &name})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	src, err := f.svc.Create(ctx, 1, Draft{
		Name:        "Pull",
		Description: "back and biceps",
		Exercises:   []models.RoutineExercise{{ExerciseID: "6", TargetSets: sets(4)}},
	})
	require.NoError(t, err)

	dup, err := f.svc.Duplicate(ctx, 1, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pull (Copy)", dup.Name)
	assert.Equal(t, "back and biceps", dup.Description)
	assert.NotEqual(t, src.ID, dup.ID)
	require.Len(t, dup.Exercises, 1)
	assert.NotEqual(t, src.Exercises[0].ID, dup.Exercises[0].ID)
	assert.Equal(t, 4, *dup.Exercises[0].TargetSets)

	list, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeleteAndMarkUsed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r, err := f.svc.Create(ctx, 1, Draft{Name: "Core"})
	require.NoError(t, err)

	f.svc.MarkUsed(ctx, 1, r.ID)
	assert.Equal(t, f.now, f.store.used[r.ID])

	require.NoError(t, f.svc.Delete(ctx, 1, r.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, 1, r.ID), models.ErrNotFound)
}

func TestStoreErrorsArePersistenceErrors(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("conn closed")
	_, err := f.svc.List(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrPersistence)
}

func TestResolve(t *testing.T) {
	r := models.Routine{Exercises: []models.RoutineExercise{
		{ExerciseID: "1", Exercise: models.Exercise{ID: "1", Name: "stale"}},
		{ExerciseID: "x", Exercise: models.Exercise{ID: "x", Name: "kept"}},
	}}
	got := Resolve(r, map[string]models.Exercise{"1": {ID: "1", Name: "Barbell Bench Press"}})
	assert.Equal(t, "Barbell Bench Press", got.Exercises[0].Exercise.Name)
	assert.Equal(t, "kept", got.Exercises[1].Exercise.Name)
	assert.Equal(t, "stale", r.Exercises[0].Exercise.Name)
}
