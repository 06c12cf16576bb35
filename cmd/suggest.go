package cmd

import (
	"fmt"

	"github.com/KaramelBytes/askcsv/internal/analysis"
	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Propose starter questions for the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), c)
		if err != nil {
			return err
		}
		qs := analysis.Suggestions(ds)
		if len(qs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: the dataset has no columns to suggest questions about")
			return nil
		}
		for _, q := range qs {
			fmt.Fprintln(cmd.OutOrStdout(), "-", q)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}
