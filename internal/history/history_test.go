package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltforce/ironlog/internal/models"
)

type fakeBackend struct {
	mu       sync.Mutex
	workouts map[int][]models.Workout
	err      error
	saved    int
}

func (f *fakeBackend) ListWorkouts(_ context.Context, userID int) ([]models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Workout(nil), f.workouts[userID]...), nil
}

func (f *fakeBackend) SaveWorkout(_ context.Context, userID int, w models.Workout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved++
	f.workouts[userID] = append(f.workouts[userID], w)
	return nil
}

func (f *fakeBackend) DeleteWorkout(_ context.Context, userID int, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, w := range f.workouts[userID] {
		if w.ID == id {
			f.workouts[userID] = append(f.workouts[userID][:i], f.workouts[userID][i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeBackend) RenameWorkout(_ context.Context, userID int, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.workouts[userID] {
		if f.workouts[userID][i].ID == id {
			f.workouts[userID][i].Name = name
			return nil
		}
	}
	return models.ErrNotFound
}

type memMirror struct{ data map[int][]models.Workout }

func (m *memMirror) SaveHistory(userID int, ws []models.Workout) error {
	m.data[userID] = append([]models.Workout(nil), ws...)
	if ws == nil {
		m.data[userID] = nil
	}
	return nil
}

func (m *memMirror) LoadHistory(userID int) ([]models.Workout, error) {
	return m.data[userID], nil
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func completed(id string, start time.Time) models.Workout {
	end := start.Add(time.Hour)
	return models.Workout{ID: id, Name: id, StartTime: start, EndTime: &end, Status: models.StatusCompleted}
}

func newService(backend *fakeBackend, mirror *memMirror, changes *[]int) *Service {
	var m Mirror
	if mirror != nil {
		m = mirror
	}
	return New(backend, m, func(userID int) { *changes = append(*changes, userID) },
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListFetchesOnceNewestFirst(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{
		1: {completed("old", t0), completed("new", t0.Add(48*time.Hour)), completed("mid", t0.Add(24*time.Hour))},
	}}
	var changes []int
	s := newService(backend, nil, &changes)

	ws, err := s.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ws, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{ws[0].ID, ws[1].ID, ws[2].ID})

	// later reads come from the cache
	backend.err = errors.New("offline")
	ws, err = s.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, ws, 3)

	last, ok, err := s.Last(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", last.ID)
}

func TestFetchFailureIsPersistenceError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused"), workouts: map[int][]models.Workout{}}
	var changes []int
	s := newService(backend, nil, &changes)

	_, err := s.Fetch(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrPersistence)
	_, err = s.List(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Empty(t, changes)
}

func TestListFallsBackToMirror(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused"), workouts: map[int][]models.Workout{}}
	mirror := &memMirror{data: map[int][]models.Workout{1: {completed("cached", t0)}}}
	var changes []int
	s := newService(backend, mirror, &changes)

	ws, err := s.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "cached", ws[0].ID)
}

func TestAppendDeleteRename(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{1: {completed("a", t0)}}}
	mirror := &memMirror{data: map[int][]models.Workout{}}
	var changes []int
	s := newService(backend, mirror, &changes)
	ctx := context.Background()

	_, err := s.List(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, 1, completed("b", t0.Add(24*time.Hour))))
	assert.Equal(t, 1, backend.saved)
	ws, _ := s.List(ctx, 1)
	assert.Equal(t, "b", ws[0].ID)
	assert.Len(t, mirror.data[1], 2)

	require.NoError(t, s.Rename(ctx, 1, "a", "  Morning Push "))
	got, err := s.Get(ctx, 1, "a")
	require.NoError(t, err)
	assert.Equal(t, "Morning Push", got.Name)

	assert.ErrorIs(t, s.Rename(ctx, 1, "a", "   "), models.ErrInvalidInput)

	require.NoError(t, s.Delete(ctx, 1, "b"))
	_, err = s.Get(ctx, 1, "b")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, 1, "missing"), models.ErrNotFound)
	assert.Equal(t, []int{1, 1, 1, 1}, changes)
}

func TestAppendFailureLeavesCache(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{}}
	var changes []int
	s := newService(backend, nil, &changes)
	ctx := context.Background()
	_, err := s.List(ctx, 1)
	require.NoError(t, err)

	backend.err = errors.New("insert rejected")
	err = s.Append(ctx, 1, completed("x", t0))
	var pe *models.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "saving workout", pe.Op)

	ws, _ := s.List(ctx, 1)
	assert.Empty(t, ws)
}

func TestAppendRejectsInvalidWorkout(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{}}
	var changes []int
	s := newService(backend, nil, &changes)

	err := s.Append(context.Background(), 1, models.Workout{ID: "x", Status: models.StatusCompleted})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Zero(t, backend.saved)
}

func TestClear(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{1: {completed("a", t0)}}}
	mirror := &memMirror{data: map[int][]models.Workout{}}
	var changes []int
	s := newService(backend, mirror, &changes)
	ctx := context.Background()

	_, err := s.List(ctx, 1)
	require.NoError(t, err)
	s.Clear(1)
	assert.Nil(t, mirror.data[1])

	// the backend still has the workout, so the next read refetches it
	ws, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ws, 1)
}

func TestAppendBeforeListKeepsBackendHistory(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{1: {completed("old", t0)}}}
	mirror := &memMirror{data: map[int][]models.Workout{}}
	var changes []int
	s := newService(backend, mirror, &changes)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, 1, completed("new", t0.Add(24*time.Hour))))
	assert.Equal(t, []int{1}, changes, "charts are invalidated even with a cold cache")
	assert.Empty(t, mirror.data[1], "a partial history is never mirrored")

	ws, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, []string{"new", "old"}, []string{ws[0].ID, ws[1].ID})
}

func TestRenameAndDeleteBeforeList(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{1: {completed("a", t0), completed("b", t0.Add(time.Hour))}}}
	var changes []int
	s := newService(backend, nil, &changes)
	ctx := context.Background()

	require.NoError(t, s.Rename(ctx, 1, "a", "Legs"))
	require.NoError(t, s.Delete(ctx, 1, "b"))

	ws, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "Legs", ws[0].Name)
}

func TestConcurrentAppendsKeepEveryWorkout(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{1: {completed("seed", t0)}}}
	s := New(backend, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	_, err := s.List(ctx, 1)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, 1, completed(fmt.Sprintf("w%02d", i), t0.Add(time.Duration(i+1)*time.Minute))))
		}(i)
	}
	wg.Wait()

	ws, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ws, n+1)
	assert.Equal(t, "w49", ws[0].ID)
	assert.Equal(t, "seed", ws[n].ID)
}

func TestFetchRacingAppendIsNotCached(t *testing.T) {
	backend := &fakeBackend{workouts: map[int][]models.Workout{}}
	s := New(backend, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// a stale backend read taken before the append must not become the cache
	stale := &staleBackend{fakeBackend: backend, onList: func() {
		require.NoError(t, s.Append(ctx, 1, completed("late", t0)))
	}}
	s.backend = stale

	ws, err := s.Fetch(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ws)

	s.backend = backend
	ws, err = s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "late", ws[0].ID)
}

// staleBackend returns the list it read, then runs onList once before
// handing it back.
type staleBackend struct {
	*fakeBackend
	onList func()
}

func (b *staleBackend) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	ws, err := b.fakeBackend.ListWorkouts(ctx, userID)
	if b.onList != nil {
		fn := b.onList
		b.onList = nil
		fn()
	}
	return ws, err
}
