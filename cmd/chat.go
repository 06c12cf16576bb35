package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KaramelBytes/askcsv/internal/export"
	"github.com/KaramelBytes/askcsv/internal/session"
	"github.com/spf13/cobra"
)

var chatOffline bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session over the dataset",
	Long: `Reads one question per line. Commands:
  :history        list the answered questions
  :export <dir>   write history, last answer and report
  :suggest        show starter questions
  :quit           leave the session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, err := openSession(cmd.Context(), chatOffline)
		if err != nil {
			return err
		}
		defer sess.Close()
		ds := sess.Dataset()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d linhas, %d colunas\n", ds.Name, ds.NumRows(), len(ds.Columns()))
		return chatLoop(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatOffline, "offline", false, "answer from local statistics only; no generative backend")
}

// chatLoop serves questions from in until EOF or :quit. Failed questions
// are reported and the loop continues.
func chatLoop(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if done := chatCommand(sess, line, out); done {
				return nil
			}
			continue
		}
		reply, err := sess.Ask(ctx, line)
		if err != nil {
			fmt.Fprintln(out, "✗ Error:", stageMessage(err))
			continue
		}
		printReply(out, reply)
	}
}

func chatCommand(sess *session.Session, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":history":
		h := sess.History()
		if len(h) == 0 {
			fmt.Fprintln(out, "(nenhuma pergunta respondida)")
		}
		for i, e := range h {
			fmt.Fprintf(out, "%d. %s\n", i+1, e.Question)
		}
	case ":suggest":
		for _, q := range sess.Suggestions() {
			fmt.Fprintln(out, "-", q)
		}
	case ":export":
		if len(fields) < 2 {
			fmt.Fprintln(out, "✗ Error: usage: :export <dir>")
			return false
		}
		paths, err := export.Dir(fields[1], sess, time.Now())
		switch {
		case err != nil:
			fmt.Fprintln(out, "✗ Error:", err)
		case len(paths) == 0:
			fmt.Fprintln(out, "⚠ Warning: nothing to export yet")
		default:
			fmt.Fprintf(out, "✓ Exported %d files to %s\n", len(paths), fields[1])
		}
	default:
		fmt.Fprintf(out, "✗ Error: unknown command %s\n", fields[0])
	}
	return false
}
