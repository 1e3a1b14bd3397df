package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meltforce/ironlog/internal/dashboard"
	"github.com/meltforce/ironlog/internal/models"
)

var (
	chartRange    string
	chartExercise string
)

const barWidth = 30

var chartCmd = &cobra.Command{
	Use:   "chart <type>",
	Short: "Draw one chart as horizontal bars",
	Long: `Draw one chart as horizontal bars.

Types: weekly_volume, workouts_per_week, exercise_progress,
personal_records, muscle_group_distribution, workout_duration.
exercise_progress needs --exercise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gt, err := models.ParseGraphType(args[0])
		if err != nil {
			return err
		}
		tr, err := models.ParseTimeRange(chartRange)
		if err != nil {
			return err
		}
		c, err := newClient().Chart(cmd.Context(), 0, gt, tr, chartExercise)
		if err != nil {
			return fmt.Errorf("loading chart: %w", err)
		}
		renderChart(cmd.OutOrStdout(), c)
		return nil
	},
}

func renderChart(out io.Writer, c *dashboard.Chart) {
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s (%s)", c.Graph.Title, c.Graph.TimeRange)))
	if len(c.Data.Series) == 0 {
		fmt.Fprintln(out, "No data in range.")
		return
	}
	var max float64
	for _, v := range c.Data.Series {
		if v > max {
			max = v
		}
	}
	tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	for i, v := range c.Data.Series {
		label := ""
		if i < len(c.Data.Labels) {
			label = c.Data.Labels[i]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", dateStyle.Render(label), valueStyle.Render(bar(v, max, barWidth)), formatNumber(v))
	}
	tw.Flush()
}

func init() {
	chartCmd.Flags().StringVarP(&chartRange, "range", "r", string(models.DefaultTimeRange), "time range: 7d, 30d, 90d or all")
	chartCmd.Flags().StringVarP(&chartExercise, "exercise", "e", "", "exercise id for exercise_progress")
	rootCmd.AddCommand(chartCmd)
}
