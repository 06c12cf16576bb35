package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/askcsv/internal/ai"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show generative providers and known model context sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "primary: %s\nsecondary: %s\n", c.PrimaryProvider, c.SecondaryProvider)
		fmt.Fprintf(out, "providers: %v\n\n", ai.Providers())
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tCONTEXT")
		for _, mi := range ai.Catalog() {
			fmt.Fprintf(tw, "%s\t%d\n", mi.Name, mi.ContextTokens)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
