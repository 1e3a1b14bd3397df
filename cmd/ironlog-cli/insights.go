package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meltforce/ironlog/internal/analysis"
)

var insightsCmd = &cobra.Command{
	Use:   "insights <workout-id>",
	Short: "Show volume, PRs and per-exercise progress for one workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := newClient().WorkoutInsights(cmd.Context(), 0, args[0])
		if err != nil {
			return fmt.Errorf("loading insights: %w", err)
		}
		renderInsights(cmd.OutOrStdout(), in)
		return nil
	},
}

func renderInsights(out io.Writer, in *analysis.Insights) {
	fmt.Fprintln(out, headerStyle.Render("Workout "+in.WorkoutID))
	fmt.Fprintf(out, "Volume:       %s kg\n", valueStyle.Render(formatNumber(in.Volume)))
	fmt.Fprintf(out, "Duration:     %.0f min\n", in.DurationMinutes)
	fmt.Fprintf(out, "PRs:          %d\n", in.PRCount)
	fmt.Fprintf(out, "This week:    %d workouts\n", in.WeeklyConsistency)
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, ex := range in.Exercises {
		pr := ""
		if ex.IsPR {
			pr = prStyle.Render("PR")
		}
		fmt.Fprintf(tw, "%s\t%d sets\tmax %s kg\t%s kg\t%s\n",
			titleStyle.Render(ex.Name), ex.CompletedSets, formatNumber(ex.MaxWeight), formatNumber(ex.Volume), pr)
	}
	tw.Flush()
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
