package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// WorkoutFromRows assembles a Workout from its backend rows. Exercises are
// ordered by order index and sets by set number. Unknown muscle groups map to
// Other; every other inconsistency is rejected with ErrInvalidInput.
func WorkoutFromRows(s WorkoutSessionRow, exercises []WorkoutExerciseRow, sets []WorkoutSetRow) (Workout, error) {
	w := Workout{
		ID:            s.ID.String(),
		Name:          s.Name,
		StartTime:     s.StartedAt,
		Status:        Status(s.Status),
		Volume:        s.Volume,
		SelfRating:    s.SelfRating,
		RestTimerUsed: s.RestTimerUsed,
		Exercises:     []WorkoutExercise{},
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		w.EndTime = &t
	}
	if s.Notes != nil {
		w.Notes = *s.Notes
	}
	if s.RoutineID != nil {
		w.RoutineID = s.RoutineID.String()
	}

	byExercise := make(map[uuid.UUID][]WorkoutSetRow, len(exercises))
	known := make(map[uuid.UUID]bool, len(exercises))
	for _, ex := range exercises {
		if ex.WorkoutSessionID != s.ID {
			return Workout{}, fmt.Errorf("exercise row %s belongs to session %s, not %s: %w",
				ex.ID, ex.WorkoutSessionID, s.ID, ErrInvalidInput)
		}
		known[ex.ID] = true
	}
	for _, set := range sets {
		if !known[set.WorkoutExerciseID] {
			return Workout{}, fmt.Errorf("set row %s references unknown exercise row %s: %w",
				set.ID, set.WorkoutExerciseID, ErrInvalidInput)
		}
		byExercise[set.WorkoutExerciseID] = append(byExercise[set.WorkoutExerciseID], set)
	}

	ordered := append([]WorkoutExerciseRow(nil), exercises...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	for _, exRow := range ordered {
		mg, err := ParseMuscleGroup(exRow.MuscleGroup)
		if err != nil {
			mg = MuscleOther
		}
		order := exRow.OrderIndex
		we := WorkoutExercise{
			ID:         exRow.ID.String(),
			ExerciseID: exRow.ExerciseID,
			Exercise: Exercise{
				ID:          exRow.ExerciseID,
				Name:        exRow.ExerciseName,
				MuscleGroup: mg,
			},
			OrderIndex: &order,
			Sets:       []WorkoutSet{},
		}
		if exRow.Notes != nil {
			we.Notes = *exRow.Notes
		}

		setRows := byExercise[exRow.ID]
		sort.SliceStable(setRows, func(i, j int) bool { return setRows[i].SetNumber < setRows[j].SetNumber })
		for _, sr := range setRows {
			ws := WorkoutSet{
				ID:        sr.ID.String(),
				Weight:    sr.Weight,
				Reps:      sr.Reps,
				Completed: sr.Completed,
				IsWarmup:  sr.IsWarmup,
				IsDropSet: sr.IsDropSet,
				IsFailure: sr.IsFailure,
				RestTime:  sr.RestTimeSeconds,
			}
			if sr.Notes != nil {
				ws.Notes = *sr.Notes
			}
			ws.SyncFlags()
			we.Sets = append(we.Sets, ws)
		}
		w.Exercises = append(w.Exercises, we)
	}

	if err := w.Validate(); err != nil {
		return Workout{}, fmt.Errorf("mapping workout %s: %w", s.ID, err)
	}
	return w, nil
}

// WorkoutToRows splits a Workout into backend rows for userID. All IDs must be UUIDs.
func WorkoutToRows(userID int, w Workout) (WorkoutSessionRow, []WorkoutExerciseRow, []WorkoutSetRow, error) {
	sessionID, err := uuid.Parse(w.ID)
	if err != nil {
		return WorkoutSessionRow{}, nil, nil, fmt.Errorf("workout id %q: %w", w.ID, ErrInvalidInput)
	}
	session := WorkoutSessionRow{
		ID:            sessionID,
		UserID:        userID,
		Name:          w.Name,
		StartedAt:     w.StartTime,
		CompletedAt:   w.EndTime,
		Status:        string(w.Status),
		Volume:        w.Volume,
		SelfRating:    w.SelfRating,
		RestTimerUsed: w.RestTimerUsed,
		Source:        "app",
	}
	if w.Notes != "" {
		notes := w.Notes
		session.Notes = &notes
	}
	if w.RoutineID != "" {
		if rid, err := uuid.Parse(w.RoutineID); err == nil {
			session.RoutineID = &rid
		}
	}

	var exRows []WorkoutExerciseRow
	var setRows []WorkoutSetRow
	for i, ex := range w.Exercises {
		exID, err := uuid.Parse(ex.ID)
		if err != nil {
			return WorkoutSessionRow{}, nil, nil, fmt.Errorf("exercise instance id %q: %w", ex.ID, ErrInvalidInput)
		}
		order := i
		if ex.OrderIndex != nil {
			order = *ex.OrderIndex
		}
		row := WorkoutExerciseRow{
			ID:               exID,
			WorkoutSessionID: sessionID,
			ExerciseID:       ex.ExerciseID,
			ExerciseName:     ex.Exercise.Name,
			MuscleGroup:      string(ex.Exercise.MuscleGroup),
			OrderIndex:       order,
		}
		if ex.Notes != "" {
			notes := ex.Notes
			row.Notes = &notes
		}
		exRows = append(exRows, row)

		for j, s := range ex.Sets {
			setID, err := uuid.Parse(s.ID)
			if err != nil {
				return WorkoutSessionRow{}, nil, nil, fmt.Errorf("set id %q: %w", s.ID, ErrInvalidInput)
			}
			t := s.EffectiveType()
			sr := WorkoutSetRow{
				ID:                setID,
				WorkoutExerciseID: exID,
				SetNumber:         j + 1,
				Weight:            s.Weight,
				Reps:              s.Reps,
				Completed:         s.Completed,
				IsWarmup:          s.IsWarmup || t == SetWarmup,
				IsDropSet:         s.IsDropSet || t == SetDrop,
				IsFailure:         s.IsFailure || t == SetFailure,
				RestTimeSeconds:   s.RestTime,
			}
			if s.Notes != "" {
				notes := s.Notes
				sr.Notes = &notes
			}
			setRows = append(setRows, sr)
		}
	}
	return session, exRows, setRows, nil
}

// RoutineFromRow decodes a routines row.
func RoutineFromRow(row RoutineRow) (Routine, error) {
	r := Routine{
		ID:        row.ID.String(),
		UserID:    row.UserID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		LastUsed:  row.LastUsed,
		Exercises: []RoutineExercise{},
	}
	if row.Description != nil {
		r.Description = *row.Description
	}
	if len(row.Exercises) > 0 {
		if err := json.Unmarshal(row.Exercises, &r.Exercises); err != nil {
			return Routine{}, fmt.Errorf("decoding routine %s exercises: %w", row.ID, err)
		}
	}
	sort.SliceStable(r.Exercises, func(i, j int) bool { return r.Exercises[i].Order < r.Exercises[j].Order })
	return r, nil
}

// RoutineToRow encodes r for the routines table.
func RoutineToRow(r Routine) (RoutineRow, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return RoutineRow{}, fmt.Errorf("routine id %q: %w", r.ID, ErrInvalidInput)
	}
	exercises, err := json.Marshal(r.Exercises)
	if err != nil {
		return RoutineRow{}, fmt.Errorf("encoding routine exercises: %w", err)
	}
	row := RoutineRow{
		ID:        id,
		UserID:    r.UserID,
		Name:      r.Name,
		Exercises: exercises,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		LastUsed:  r.LastUsed,
	}
	if r.Description != "" {
		d := r.Description
		row.Description = &d
	}
	return row, nil
}

// ExerciseFromRow decodes an exercises row.
func ExerciseFromRow(row ExerciseRow) Exercise {
	mg, err := ParseMuscleGroup(row.MuscleGroup)
	if err != nil {
		mg = MuscleOther
	}
	e := Exercise{ID: row.ID, Name: row.Name, MuscleGroup: mg, Custom: true}
	for _, s := range row.SecondaryMuscles {
		if smg, err := ParseMuscleGroup(s); err == nil {
			e.SecondaryMuscles = append(e.SecondaryMuscles, smg)
		}
	}
	if row.MovementType != nil {
		e.Type = MovementType(*row.MovementType)
	}
	if row.Equipment != nil {
		e.Equipment = *row.Equipment
	}
	if row.Instructions != nil {
		e.Instructions = *row.Instructions
	}
	return e
}
