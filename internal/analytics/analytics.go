// Package analytics builds the time-bucketed chart series shown on the
// dashboard. Every function is total: empty or non-matching input yields an
// empty series, never an error. Time buckets are computed in now's location.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/meltforce/ironlog/internal/calendar"
	"github.com/meltforce/ironlog/internal/models"
)

const (
	maxDayBuckets      = 7
	maxWeekBuckets     = 8
	maxProgressPoints  = 10
	maxDurationPoints  = 10
	topRecords         = 5
	recordLabelMaxRune = 15
)

// WeeklyVolume sums stored volume per calendar day of workouts that ended
// inside the range window, keeping the 7 most recent non-empty days.
func WeeklyVolume(history []models.Workout, r models.TimeRange, now time.Time) models.ChartSeries {
	loc := now.Location()
	start := calendar.WindowStart(now, r.Days())

	byDay := make(map[time.Time]float64)
	var days []time.Time
	for _, w := range history {
		if w.EndTime == nil || w.EndTime.Before(start) {
			continue
		}
		day := calendar.StartOfDay(w.EndTime.In(loc))
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] += w.Volume
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > maxDayBuckets {
		days = days[len(days)-maxDayBuckets:]
	}

	out := models.EmptyChart()
	for _, d := range days {
		out.Labels = append(out.Labels, calendar.DayLabel(d))
		out.Series = append(out.Series, byDay[d])
	}
	return out
}

// WorkoutFrequency counts workouts per ISO week across the range window,
// keeping the 8 most recent weeks. Weeks with no workouts are included as
// long as at least one workout falls in the window.
func WorkoutFrequency(history []models.Workout, r models.TimeRange, now time.Time) models.ChartSeries {
	first := calendar.StartOfWeek(calendar.WindowStart(now, r.Days()))
	last := calendar.StartOfWeek(now)

	var weeks []time.Time
	for wk := first; !wk.After(last); wk = wk.AddDate(0, 0, 7) {
		weeks = append(weeks, wk)
	}
	if len(weeks) > maxWeekBuckets {
		weeks = weeks[len(weeks)-maxWeekBuckets:]
	}
	if len(history) == 0 {
		return models.EmptyChart()
	}

	out := models.EmptyChart()
	total := 0
	for _, wk := range weeks {
		next := wk.AddDate(0, 0, 7)
		n := 0
		for _, w := range history {
			if w.EndTime != nil && !w.EndTime.Before(wk) && w.EndTime.Before(next) {
				n++
			}
		}
		total += n
		out.Labels = append(out.Labels, calendar.DayLabel(wk))
		out.Series = append(out.Series, float64(n))
	}
	if total == 0 {
		return models.EmptyChart()
	}
	return out
}

type point struct {
	at    time.Time
	value float64
}

func series(points []point, limit int) models.ChartSeries {
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	out := models.EmptyChart()
	for _, p := range points {
		out.Labels = append(out.Labels, calendar.DayLabel(p.at))
		out.Series = append(out.Series, p.value)
	}
	return out
}

// ExerciseProgress plots the heaviest set of exerciseID per finished workout,
// oldest first, keeping the 10 most recent sessions.
func ExerciseProgress(history []models.Workout, exerciseID string) models.ChartSeries {
	if exerciseID == "" {
		return models.EmptyChart()
	}
	var points []point
	for _, w := range history {
		if w.EndTime == nil {
			continue
		}
		ex, ok := w.Exercise(exerciseID)
		if !ok {
			continue
		}
		if max, ok := ex.MaxWeight(); ok {
			points = append(points, point{at: *w.EndTime, value: max})
		}
	}
	return series(points, maxProgressPoints)
}

// PersonalRecordsTop5 ranks exercises by the heaviest weight lifted in any
// single session and returns the top five. Long names are shortened to 15
// characters plus "...". Ties keep first-seen order.
func PersonalRecordsTop5(history []models.Workout) models.ChartSeries {
	type record struct {
		name string
		max  float64
	}
	var order []string
	best := make(map[string]*record)
	for _, w := range history {
		for _, ex := range w.Exercises {
			max, ok := ex.MaxWeight()
			if !ok {
				continue
			}
			cur, seen := best[ex.ExerciseID]
			if !seen {
				order = append(order, ex.ExerciseID)
				best[ex.ExerciseID] = &record{name: ex.Exercise.Name, max: max}
				continue
			}
			if max > cur.max {
				cur.name, cur.max = ex.Exercise.Name, max
			}
		}
	}

	records := make([]record, 0, len(order))
	for _, id := range order {
		records = append(records, *best[id])
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].max > records[j].max })
	if len(records) > topRecords {
		records = records[:topRecords]
	}

	out := models.EmptyChart()
	for _, r := range records {
		out.Labels = append(out.Labels, truncateLabel(r.name))
		out.Series = append(out.Series, r.max)
	}
	return out
}

func truncateLabel(name string) string {
	runes := []rune(name)
	if len(runes) <= recordLabelMaxRune {
		return name
	}
	return string(runes[:recordLabelMaxRune]) + "..."
}

// MuscleGroupDistribution sums weight×reps of every set, regardless of type
// or completion, per primary muscle group over the whole history. Groups are
// listed in display order and only when present.
func MuscleGroupDistribution(history []models.Workout) models.ChartSeries {
	totals := make(map[models.MuscleGroup]float64)
	for _, w := range history {
		for _, ex := range w.Exercises {
			mg := ex.Exercise.MuscleGroup
			if _, err := models.ParseMuscleGroup(string(mg)); err != nil {
				mg = models.MuscleOther
			}
			totals[mg] += ex.RawVolume()
		}
	}

	out := models.EmptyChart()
	for _, mg := range models.MuscleGroups {
		if v, ok := totals[mg]; ok {
			out.Labels = append(out.Labels, string(mg))
			out.Series = append(out.Series, v)
		}
	}
	return out
}

// WorkoutDuration plots session length in whole minutes for workouts that
// ended inside the range window, keeping the 10 most recent.
func WorkoutDuration(history []models.Workout, r models.TimeRange, now time.Time) models.ChartSeries {
	start := calendar.WindowStart(now, r.Days())
	var points []point
	for _, w := range history {
		if w.EndTime == nil || w.EndTime.Before(start) {
			continue
		}
		points = append(points, point{
			at:    w.EndTime.In(now.Location()),
			value: math.Round(w.Duration().Minutes()),
		})
	}
	return series(points, maxDurationPoints)
}

// Build renders the chart for one dashboard graph.
func Build(cfg models.GraphConfig, history []models.Workout, now time.Time) models.ChartSeries {
	r := cfg.TimeRange
	if r == "" {
		r = models.DefaultTimeRange
	}
	switch cfg.Type {
	case models.GraphWeeklyVolume:
		return WeeklyVolume(history, r, now)
	case models.GraphWorkoutsPerWeek:
		return WorkoutFrequency(history, r, now)
	case models.GraphExerciseProgress:
		return ExerciseProgress(history, cfg.ExerciseID)
	case models.GraphPersonalRecords:
		return PersonalRecordsTop5(history)
	case models.GraphMuscleGroupDistribution:
		return MuscleGroupDistribution(history)
	case models.GraphWorkoutDuration:
		return WorkoutDuration(history, r, now)
	}
	return models.EmptyChart()
}
