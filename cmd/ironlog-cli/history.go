package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meltforce/ironlog/internal/models"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed workouts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newClient().ListWorkouts(cmd.Context(), 0)
		if err != nil {
			return fmt.Errorf("listing workouts: %w", err)
		}
		if historyLimit > 0 && len(ws) > historyLimit {
			ws = ws[:historyLimit]
		}
		renderHistory(cmd.OutOrStdout(), ws)
		return nil
	},
}

func renderHistory(out io.Writer, ws []models.Workout) {
	if len(ws) == 0 {
		fmt.Fprintln(out, "No workouts logged yet.")
		return
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d workouts", len(ws))))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, w := range ws {
		minutes := 0.0
		if w.EndTime != nil {
			minutes = w.EndTime.Sub(w.StartTime).Minutes()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s kg\t%.0f min\t%s\n",
			dateStyle.Render(w.StartTime.Format("2006-01-02")),
			titleStyle.Render(w.Name),
			exerciseCount(len(w.Exercises)),
			valueStyle.Render(formatNumber(w.Volume)),
			minutes,
			idStyle.Render(w.ID),
		)
	}
	tw.Flush()
}

func exerciseCount(n int) string {
	if n == 1 {
		return "1 exercise"
	}
	return fmt.Sprintf("%d exercises", n)
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum workouts to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
