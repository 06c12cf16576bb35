package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/askcsv/internal/answer"
	"github.com/KaramelBytes/askcsv/internal/router"
	"github.com/KaramelBytes/askcsv/internal/utils"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats <intent>",
	Short: "Run one local statistic directly",
	Long:  "Runs a statistic without routing a question. Intents: " + strings.Join(localIntents(), ", ") + ".",
	Example: `  askcsv stats central_tendency -d data/creditcard.csv
  askcsv stats clustering --k 4 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := router.Parse(args[0])
		if err != nil {
			return err
		}
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), c)
		if err != nil {
			return err
		}
		res, err := router.Dispatch(in, ds, c.ClusterK)
		if err != nil {
			return err
		}
		t := answer.Format(res, router.Title(in))
		if statsJSON {
			b, err := utils.PrettyJSON(t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		printTable(cmd.OutOrStdout(), t)
		return nil
	},
}

func localIntents() []string {
	ins := router.Intents()
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = string(in)
	}
	return out
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the table as JSON")
}
