package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meltforce/ironlog/internal/models"
)

var (
	exercisesQuery  string
	exercisesMuscle string
)

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "Search the exercise library",
	RunE: func(cmd *cobra.Command, args []string) error {
		var mg models.MuscleGroup
		if exercisesMuscle != "" {
			var err error
			if mg, err = models.ParseMuscleGroup(exercisesMuscle); err != nil {
				return err
			}
		}
		es, err := newClient().ListExercises(cmd.Context(), 0, exercisesQuery, mg)
		if err != nil {
			return fmt.Errorf("listing exercises: %w", err)
		}
		renderExercises(cmd.OutOrStdout(), es)
		return nil
	},
}

func renderExercises(out io.Writer, es []models.Exercise) {
	if len(es) == 0 {
		fmt.Fprintln(out, "No matching exercises.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, e := range es {
		name := e.Name
		if e.Custom {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", titleStyle.Render(name), e.MuscleGroup, e.Equipment, idStyle.Render(e.ID))
	}
	tw.Flush()
}

func init() {
	exercisesCmd.Flags().StringVarP(&exercisesQuery, "query", "q", "", "case-insensitive name search")
	exercisesCmd.Flags().StringVarP(&exercisesMuscle, "muscle", "m", "", "muscle group, e.g. Chest")
	rootCmd.AddCommand(exercisesCmd)
}
