package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/askcsv/internal/export"
	"github.com/KaramelBytes/askcsv/internal/utils"
	"github.com/spf13/cobra"
)

var (
	askOffline   bool
	askJSON      bool
	askExportDir string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question about the dataset",
	Example: `  askcsv ask "Qual a média das colunas?" -d data/creditcard.csv
  askcsv ask "Existem outliers?" --offline --json
  askcsv ask "Resuma os dados em uma frase" --export out/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		sess, _, err := openSession(cmd.Context(), askOffline)
		if err != nil {
			return err
		}
		defer sess.Close()

		reply, err := sess.Ask(cmd.Context(), question)
		if err != nil {
			return fmt.Errorf("%s", stageMessage(err))
		}
		out := cmd.OutOrStdout()
		if askJSON {
			b, err := utils.PrettyJSON(reply)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			printReply(out, reply)
		}
		if askExportDir != "" {
			paths, err := export.Dir(askExportDir, sess, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d files to %s\n", len(paths), askExportDir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askOffline, "offline", false, "answer from local statistics only; no generative backend")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the reply as JSON")
	askCmd.Flags().StringVar(&askExportDir, "export", "", "write history, last answer and report to this directory")
}
