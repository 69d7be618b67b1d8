package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	chatSheet sheetFlags
	chatFlags answerFlags
)

var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Ask questions about a spreadsheet interactively",
	Long:  "Read questions line by line from stdin until EOF, 'exit' or 'quit'. Each question is answered independently.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, types, err := chatSheet.loadSheet(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		a := &answerer{t: t, types: types, flags: chatFlags}
		fmt.Fprintf(out, "Loaded %s (%d rows, %d columns). Type 'exit' to quit.\n", t.Name, t.Rows(), len(t.Columns))

		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				fmt.Fprintln(out)
				break
			}
			q := strings.TrimSpace(sc.Text())
			switch strings.ToLower(q) {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			if err := a.answer(cmd.Context(), out, q); err != nil {
				if errors.Is(err, errReported) {
					continue
				}
				fmt.Fprintf(out, "✗ Error: %v\n", err)
			}
		}
		return sc.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatSheet.register(chatCmd)
	chatFlags.register(chatCmd)
}
