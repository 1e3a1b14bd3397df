package models

import "fmt"

// GraphType selects which aggregation a dashboard graph renders.
type GraphType string

const (
	GraphWeeklyVolume            GraphType = "weekly_volume"
	GraphWorkoutsPerWeek         GraphType = "workouts_per_week"
	GraphExerciseProgress        GraphType = "exercise_progress"
	GraphPersonalRecords         GraphType = "personal_records"
	GraphMuscleGroupDistribution GraphType = "muscle_group_distribution"
	GraphWorkoutDuration         GraphType = "workout_duration"
)

// GraphTypeInfo describes a graph type for the graph picker.
type GraphTypeInfo struct {
	Type        GraphType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// GraphTypes lists the selectable graph types in picker order.
var GraphTypes = []GraphTypeInfo{
	{GraphWeeklyVolume, "Weekly Volume", "Track your total volume over time", "bar-chart"},
	{GraphWorkoutsPerWeek, "Workouts Per Week", "Monitor workout frequency", "trending-up"},
	{GraphExerciseProgress, "Exercise Progress", "See strength gains per exercise", "dumbbell"},
	{GraphPersonalRecords, "Personal Records", "View your top lifts", "trophy"},
	{GraphMuscleGroupDistribution, "Muscle Groups", "Analyze training balance", "pie-chart"},
	{GraphWorkoutDuration, "Workout Duration", "Track session lengths", "clock"},
}

// ParseGraphType validates s against the known graph types.
func ParseGraphType(s string) (GraphType, error) {
	for _, info := range GraphTypes {
		if string(info.Type) == s {
			return info.Type, nil
		}
	}
	return "", fmt.Errorf("unknown graph type %q: %w", s, ErrInvalidInput)
}

// DefaultTitle is the title a newly added graph of type t gets.
func (t GraphType) DefaultTitle() string {
	for _, info := range GraphTypes {
		if info.Type == t {
			return info.Title
		}
	}
	return string(t)
}

// TimeRange is the window an aggregation looks back over.
type TimeRange string

const (
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	Range90d TimeRange = "90d"
	RangeAll TimeRange = "all"
)

// DefaultTimeRange is the range given to newly added graphs.
const DefaultTimeRange = Range30d

// Days returns the look-back window in days. "all" is a 365 day window.
func (r TimeRange) Days() int {
	switch r {
	case Range7d:
		return 7
	case Range30d:
		return 30
	case Range90d:
		return 90
	default:
		return 365
	}
}

// ParseTimeRange validates s. An empty string yields DefaultTimeRange.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return DefaultTimeRange, nil
	case Range7d, Range30d, Range90d, RangeAll:
		return TimeRange(s), nil
	}
	return "", fmt.Errorf("unknown time range %q: %w", s, ErrInvalidInput)
}

// GraphConfig is one user-owned dashboard graph.
type GraphConfig struct {
	ID         string    `json:"id"`
	Type       GraphType `json:"type"`
	Title      string    `json:"title"`
	TimeRange  TimeRange `json:"time_range"`
	ExerciseID string    `json:"exercise_id,omitempty"`
}

// Validate checks type and range. A missing exercise on an exercise_progress
// graph is allowed; that graph renders as empty.
func (g GraphConfig) Validate() error {
	if _, err := ParseGraphType(string(g.Type)); err != nil {
		return err
	}
	if _, err := ParseTimeRange(string(g.TimeRange)); err != nil {
		return err
	}
	return nil
}

// ChartSeries is the labelled series an aggregation produces. Both slices are
// empty, never nil, when there is no data.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Series []float64 `json:"series"`
}

// EmptyChart returns a series with zero-length, non-nil slices.
func EmptyChart() ChartSeries {
	return ChartSeries{Labels: []string{}, Series: []float64{}}
}

// Len is the number of points in the series.
func (c ChartSeries) Len() int { return len(c.Labels) }
