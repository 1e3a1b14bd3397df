package models

import (
	"fmt"
	"strings"
)

// MuscleGroup is the primary or secondary muscle group an exercise trains.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "Chest"
	MuscleBack      MuscleGroup = "Back"
	MuscleLegs      MuscleGroup = "Legs"
	MuscleShoulders MuscleGroup = "Shoulders"
	MuscleArms      MuscleGroup = "Arms"
	MuscleCore      MuscleGroup = "Core"
	MuscleCardio    MuscleGroup = "Cardio"
	MuscleOther     MuscleGroup = "Other"
)

// MuscleGroups lists every muscle group in display order.
var MuscleGroups = []MuscleGroup{
	MuscleChest, MuscleBack, MuscleLegs, MuscleShoulders,
	MuscleArms, MuscleCore, MuscleCardio, MuscleOther,
}

// ParseMuscleGroup matches s case-insensitively against the known groups.
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	for _, mg := range MuscleGroups {
		if strings.EqualFold(string(mg), strings.TrimSpace(s)) {
			return mg, nil
		}
	}
	return "", fmt.Errorf("unknown muscle group %q: %w", s, ErrInvalidInput)
}

// MovementType classifies an exercise as multi-joint or single-joint.
type MovementType string

const (
	MovementCompound  MovementType = "Compound"
	MovementIsolation MovementType = "Isolation"
)

// Exercise is immutable reference data from the exercise library.
type Exercise struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	MuscleGroup      MuscleGroup   `json:"muscle_group"`
	SecondaryMuscles []MuscleGroup `json:"secondary_muscles,omitempty"`
	Type             MovementType  `json:"type,omitempty"`
	Equipment        string        `json:"equipment,omitempty"`
	Instructions     string        `json:"instructions,omitempty"`
	Custom           bool          `json:"custom,omitempty"`
}

// Trains reports whether the exercise works mg as primary or secondary group.
func (e Exercise) Trains(mg MuscleGroup) bool {
	if e.MuscleGroup == mg {
		return true
	}
	for _, s := range e.SecondaryMuscles {
		if s == mg {
			return true
		}
	}
	return false
}

// Validate checks the fields a custom exercise must carry.
func (e Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("exercise name is required: %w", ErrInvalidInput)
	}
	if _, err := ParseMuscleGroup(string(e.MuscleGroup)); err != nil {
		return err
	}
	for _, s := range e.SecondaryMuscles {
		if _, err := ParseMuscleGroup(string(s)); err != nil {
			return err
		}
	}
	switch e.Type {
	case "", MovementCompound, MovementIsolation:
	default:
		return fmt.Errorf("unknown movement type %q: %w", e.Type, ErrInvalidInput)
	}
	return nil
}
