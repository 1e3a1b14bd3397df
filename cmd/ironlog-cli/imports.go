package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meltforce/ironlog/internal/storage"
)

var importsLimit int

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Show recent export imports and their outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		logs, err := newClient().ListImports(cmd.Context(), importsLimit)
		if err != nil {
			return fmt.Errorf("listing imports: %w", err)
		}
		renderImports(cmd.OutOrStdout(), logs)
		return nil
	},
}

func renderImports(out io.Writer, logs []storage.ImportLog) {
	if len(logs) == 0 {
		fmt.Fprintln(out, "No imports yet.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, l := range logs {
		status := valueStyle.Render(l.Status)
		if l.Status != storage.ImportSucceeded {
			status = prStyle.Render(l.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d workouts\t%s kg\n",
			dateStyle.Render(l.CreatedAt.Format("2006-01-02 15:04")),
			l.Source, status, l.WorkoutsImported, l.WorkoutsReceived, formatNumber(l.Volume))
		if l.ErrorMessage != nil {
			fmt.Fprintf(tw, "\t\t%s\n", *l.ErrorMessage)
		}
	}
	tw.Flush()
}

func init() {
	importsCmd.Flags().IntVarP(&importsLimit, "limit", "n", 10, "maximum imports to show")
	rootCmd.AddCommand(importsCmd)
}
