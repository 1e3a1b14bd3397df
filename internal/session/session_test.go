package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/meltforce/ironlog/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string { return fmt.Sprintf("id-%d", g.n.Add(1)) }

var (
	start = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	squat = models.Exercise{ID: "4", Name: "Barbell Squat", MuscleGroup: models.MuscleLegs, Type: models.MovementCompound}
	bench = models.Exercise{ID: "1", Name: "Barbell Bench Press", MuscleGroup: models.MuscleChest}
)

type fixture struct {
	session  *Session
	recorder *MockRecorder
	now      *time.Time
}

func newFixture(t *testing.T, opts Options) *fixture {
	ctrl := gomock.NewController(t)
	rec := NewMockRecorder(ctrl)
	now := start
	if opts.Clock == nil {
		opts.Clock = ClockFunc(func() time.Time { return now })
	}
	if opts.IDs == nil {
		opts.IDs = &seqIDs{}
	}
	return &fixture{session: New(7, rec, opts), recorder: rec, now: &now}
}

func ptr[T any](v T) *T { return &v }

func TestLegDayEndToEnd(t *testing.T) {
	f := newFixture(t, Options{})
	s := f.session

	var appended []models.Workout
	f.recorder.EXPECT().
		Append(gomock.Any(), 7, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int, w models.Workout) error {
			appended = append(appended, w)
			return nil
		}).
		Times(1)

	w, err := s.StartEmpty("Leg Day")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, w.Status)
	assert.Equal(t, start, w.StartTime)
	assert.Zero(t, w.Volume)

	ex, ok := s.AddExercise(squat)
	require.True(t, ok)
	_, ok = s.AddSet(ex.ID)
	require.True(t, ok)
	_, ok = s.AddSet(ex.ID)
	require.True(t, ok)

	active, _ := s.Active()
	require.Len(t, active.Exercises, 1)
	require.Len(t, active.Exercises[0].Sets, 3)
	for _, set := range active.Exercises[0].Sets {
		_, err := s.UpdateSet(ex.ID, set.ID, SetUpdate{Weight: ptr(100.0), Reps: ptr(5)})
		require.NoError(t, err)
		require.True(t, s.CompleteSet(ex.ID, set.ID))
	}

	*f.now = start.Add(50 * time.Minute)
	done, err := s.Finish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1500.0, done.Volume)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.EndTime)
	assert.Equal(t, start.Add(50*time.Minute), *done.EndTime)
	require.Len(t, appended, 1)
	assert.Equal(t, done.ID, appended[0].ID)
	assert.Equal(t, StateIdle, s.State())
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestStartEmptyRejectsSecondWorkout(t *testing.T) {
	s := newFixture(t, Options{}).session
	first, err := s.StartEmpty("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, first.Name)

	_, err = s.StartEmpty("Push")
	assert.ErrorIs(t, err, ErrWorkoutActive)
	_, err = s.StartFromRoutine(models.Routine{Name: "Pull"})
	assert.ErrorIs(t, err, ErrWorkoutActive)

	active, _ := s.Active()
	assert.Equal(t, first.ID, active.ID)

	require.True(t, s.Cancel())
	_, err = s.StartEmpty("Push")
	assert.NoError(t, err)
}

func TestStartFromRoutine(t *testing.T) {
	s := newFixture(t, Options{}).session
	routine := models.Routine{
		ID:   "r1",
		Name: "Full Body",
		Exercises: []models.RoutineExercise{
			{ID: "re-1", ExerciseID: "4", Exercise: squat, Order: 0, TargetSets: ptr(3), TargetReps: ptr(5), TargetWeight: ptr(100.0)},
			{ID: "re-2", ExerciseID: "1", Exercise: bench, Order: 1},
			{ID: "re-3", ExerciseID: "9", Order: 2, TargetSets: ptr(0), TargetReps: ptr(12)},
		},
	}

	w, err := s.StartFromRoutine(routine)
	require.NoError(t, err)
	assert.Equal(t, "Full Body", w.Name)
	assert.Equal(t, "r1", w.RoutineID)
	require.Len(t, w.Exercises, 3)

	assert.Len(t, w.Exercises[0].Sets, 3)
	assert.Len(t, w.Exercises[1].Sets, 1)
	assert.Len(t, w.Exercises[2].Sets, 1)
	assert.Equal(t, "9", w.Exercises[2].Exercise.ID)

	seen := map[string]bool{}
	for _, ex := range w.Exercises {
		assert.NotContains(t, []string{"re-1", "re-2", "re-3"}, ex.ID)
		assert.False(t, seen[ex.ID])
		seen[ex.ID] = true
		for _, set := range ex.Sets {
			assert.False(t, set.Completed)
			assert.False(t, seen[set.ID])
			seen[set.ID] = true
		}
	}
	first := w.Exercises[0].Sets[0]
	assert.Equal(t, 100.0, first.Weight)
	assert.Equal(t, 5, first.Reps)
	assert.Equal(t, 0.0, w.Exercises[1].Sets[0].Weight)
	assert.Equal(t, 12, w.Exercises[2].Sets[0].Reps)

	// the routine is a template and stays untouched
	assert.Equal(t, "re-1", routine.Exercises[0].ID)
	assert.Equal(t, 3, *routine.Exercises[0].TargetSets)
}

func TestEditsWithoutActiveWorkoutAreNoOps(t *testing.T) {
	s := newFixture(t, Options{}).session

	_, ok := s.AddExercise(squat)
	assert.False(t, ok)
	assert.False(t, s.RemoveExercise("x"))
	_, ok = s.AddSet("x")
	assert.False(t, ok)
	assert.False(t, s.RemoveSet("x", "y"))
	ok, err := s.UpdateSet("x", "y", SetUpdate{Reps: ptr(3)})
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.False(t, s.CompleteSet("x", "y"))
	assert.False(t, s.UpdateName("Renamed"))
	assert.False(t, s.Cancel())

	_, err = s.Finish(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveWorkout)
}

func TestAddSetCarriesForward(t *testing.T) {
	s := newFixture(t, Options{}).session
	_, err := s.StartEmpty("Push")
	require.NoError(t, err)
	ex, _ := s.AddExercise(bench)
	assert.Equal(t, []models.WorkoutSet{{ID: ex.Sets[0].ID, Type: models.SetNormal}}, ex.Sets)

	_, err = s.UpdateSet(ex.ID, ex.Sets[0].ID, SetUpdate{Weight: ptr(80.0), Reps: ptr(8), Completed: ptr(true)})
	require.NoError(t, err)

	set, ok := s.AddSet(ex.ID)
	require.True(t, ok)
	assert.Equal(t, 80.0, set.Weight)
	assert.Equal(t, 8, set.Reps)
	assert.False(t, set.Completed)

	// an exercise whose sets were all removed starts from zero
	active, _ := s.Active()
	for _, st := range active.Exercises[0].Sets {
		require.True(t, s.RemoveSet(ex.ID, st.ID))
	}
	set, ok = s.AddSet(ex.ID)
	require.True(t, ok)
	assert.Zero(t, set.Weight)
	assert.Zero(t, set.Reps)

	_, ok = s.AddSet("unknown")
	assert.False(t, ok)
}

func TestUpdateSet(t *testing.T) {
	s := newFixture(t, Options{}).session
	_, err := s.StartEmpty("Pull")
	require.NoError(t, err)
	ex, _ := s.AddExercise(squat)
	setID := ex.Sets[0].ID

	_, err = s.UpdateSet(ex.ID, setID, SetUpdate{Weight: ptr(60.0), Reps: ptr(10)})
	require.NoError(t, err)
	warmup := models.SetWarmup
	ok, err := s.UpdateSet(ex.ID, setID, SetUpdate{Type: &warmup, RestTime: ptr(90)})
	require.NoError(t, err)
	require.True(t, ok)

	active, _ := s.Active()
	got := active.Exercises[0].Sets[0]
	assert.Equal(t, 60.0, got.Weight, "unspecified fields keep prior values")
	assert.Equal(t, 10, got.Reps)
	assert.Equal(t, models.SetWarmup, got.Type)
	assert.True(t, got.IsWarmup)
	assert.Equal(t, 90, *got.RestTime)

	ok, err = s.UpdateSet(ex.ID, setID, SetUpdate{Weight: ptr(-5.0)})
	assert.False(t, ok)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = s.UpdateSet(ex.ID, setID, SetUpdate{Reps: ptr(-1)})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	active, _ = s.Active()
	assert.Equal(t, 60.0, active.Exercises[0].Sets[0].Weight)
	assert.Equal(t, 10, active.Exercises[0].Sets[0].Reps)
}

func TestCompleteSetToggles(t *testing.T) {
	s := newFixture(t, Options{}).session
	_, err := s.StartEmpty("Legs")
	require.NoError(t, err)
	ex, _ := s.AddExercise(squat)
	setID := ex.Sets[0].ID

	completed := func() bool {
		w, _ := s.Active()
		return w.Exercises[0].Sets[0].Completed
	}
	require.True(t, s.CompleteSet(ex.ID, setID))
	assert.True(t, completed())
	require.True(t, s.CompleteSet(ex.ID, setID))
	assert.False(t, completed())
	assert.False(t, s.CompleteSet(ex.ID, "missing"))
}

func TestUpdateNameIgnoresBlank(t *testing.T) {
	s := newFixture(t, Options{}).session
	_, err := s.StartEmpty("Legs")
	require.NoError(t, err)

	assert.False(t, s.UpdateName(" \t "))
	assert.True(t, s.UpdateName(" Heavy Legs "))
	w, _ := s.Active()
	assert.Equal(t, "Heavy Legs", w.Name)
}

func TestRemoveExercise(t *testing.T) {
	s := newFixture(t, Options{}).session
	_, err := s.StartEmpty("Mixed")
	require.NoError(t, err)
	a, _ := s.AddExercise(squat)
	b, _ := s.AddExercise(bench)

	require.True(t, s.RemoveExercise(a.ID))
	assert.False(t, s.RemoveExercise(a.ID))
	w, _ := s.Active()
	require.Len(t, w.Exercises, 1)
	assert.Equal(t, b.ID, w.Exercises[0].ID)
}

func TestActiveReturnsCopy(t *testing.T) {
	s := newFixture(t, Options{}).session
	_, err := s.StartEmpty("Legs")
	require.NoError(t, err)
	s.AddExercise(squat)

	w, _ := s.Active()
	w.Exercises[0].Sets[0].Weight = 500
	w.Name = "mutated"

	again, _ := s.Active()
	assert.Zero(t, again.Exercises[0].Sets[0].Weight)
	assert.Equal(t, "Legs", again.Name)
}

func TestCompleteWorkoutVolume(t *testing.T) {
	active := models.Workout{
		ID: "w", StartTime: start, Status: models.StatusActive,
		Exercises: []models.WorkoutExercise{{Sets: []models.WorkoutSet{
			{Weight: 100, Reps: 5, Completed: true, Type: models.SetNormal},
			{Weight: 60, Reps: 10, Completed: true, Type: models.SetWarmup},
			{Weight: 100, Reps: 5, Completed: false, Type: models.SetNormal},
			{Weight: 70, Reps: 8, Completed: true, Type: models.SetFailure},
		}}},
	}
	done := CompleteWorkout(active, start.Add(time.Hour))
	assert.Equal(t, 1060.0, done.Volume)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Nil(t, active.EndTime, "input is not modified")
	assert.Equal(t, models.StatusActive, active.Status)

	// the stored volume is frozen at finish time
	done.Exercises[0].Sets[2].Completed = true
	assert.Equal(t, 1060.0, done.Volume)
}

func TestFinishPersistenceFailureStillLeavesActive(t *testing.T) {
	f := newFixture(t, Options{})
	s := f.session
	f.recorder.EXPECT().Append(gomock.Any(), 7, gomock.Any()).Return(errors.New("backend rejected insert"))

	_, err := s.StartEmpty("Legs")
	require.NoError(t, err)
	w, err := s.Finish(context.Background())

	var pe *models.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Equal(t, models.StatusCompleted, w.Status)
	assert.Equal(t, StateIdle, s.State())
}

func TestFinishTimesOut(t *testing.T) {
	f := newFixture(t, Options{SaveTimeout: 20 * time.Millisecond})
	s := f.session
	f.recorder.EXPECT().Append(gomock.Any(), 7, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ int, _ models.Workout) error {
			<-ctx.Done()
			return ctx.Err()
		})

	_, err := s.StartEmpty("Legs")
	require.NoError(t, err)
	_, err = s.Finish(context.Background())
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateIdle, s.State())
}

func TestFinishIsSingleFlight(t *testing.T) {
	f := newFixture(t, Options{})
	s := f.session

	entered := make(chan struct{})
	release := make(chan struct{})
	f.recorder.EXPECT().Append(gomock.Any(), 7, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int, _ models.Workout) error {
			close(entered)
			<-release
			return nil
		}).
		Times(1)

	_, err := s.StartEmpty("Legs")
	require.NoError(t, err)
	ex, _ := s.AddExercise(squat)

	result := make(chan error, 1)
	go func() {
		_, err := s.Finish(context.Background())
		result <- err
	}()
	<-entered

	assert.Equal(t, StateFinishing, s.State())
	_, err = s.Finish(context.Background())
	assert.ErrorIs(t, err, ErrFinishInProgress)
	_, err = s.StartEmpty("Again")
	assert.ErrorIs(t, err, ErrFinishInProgress)
	assert.False(t, s.CompleteSet(ex.ID, ex.Sets[0].ID), "edits during finish are ignored")
	assert.False(t, s.Cancel(), "finish and cancel are exclusive")

	close(release)
	require.NoError(t, <-result)
	assert.Equal(t, StateIdle, s.State())
}

func TestSnapshotsRestoreAndClear(t *testing.T) {
	ctrl := gomock.NewController(t)
	snaps := NewMockSnapshotter(ctrl)
	rec := NewMockRecorder(ctrl)

	saved := models.Workout{ID: "w-saved", Name: "Restored", StartTime: start, Status: models.StatusActive,
		Exercises: []models.WorkoutExercise{}}
	snaps.EXPECT().LoadActive(7).Return(&saved, nil)

	var last *models.Workout
	snaps.EXPECT().SaveActive(7, gomock.Any()).
		DoAndReturn(func(_ int, w *models.Workout) error {
			last = w
			return nil
		}).
		AnyTimes()
	rec.EXPECT().Append(gomock.Any(), 7, gomock.Any()).Return(nil)

	s := New(7, rec, Options{Snapshots: snaps, IDs: &seqIDs{}})
	w, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "w-saved", w.ID)

	s.AddExercise(squat)
	require.NotNil(t, last)
	assert.Len(t, last.Exercises, 1)

	_, err := s.Finish(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last, "snapshot cleared after finish")
}

func TestSnapshotLoadFailureStartsIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	snaps := NewMockSnapshotter(ctrl)
	snaps.EXPECT().LoadActive(3).Return(nil, errors.New("disk I/O error"))

	s := New(3, NewMockRecorder(ctrl), Options{Snapshots: snaps})
	assert.Equal(t, StateIdle, s.State())
}

func TestRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := NewRegistry(NewMockRecorder(ctrl), Options{IDs: &seqIDs{}})

	a := r.For(1)
	assert.Same(t, a, r.For(1))
	assert.NotSame(t, a, r.For(2))
	assert.Equal(t, 0, r.ActiveCount())

	_, err := a.StartEmpty("Legs")
	require.NoError(t, err)
	assert.Equal(t, 1, r.ActiveCount())
	assert.Equal(t, StateIdle, r.For(2).State())
}
