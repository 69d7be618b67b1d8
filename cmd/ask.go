package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	askSheet sheetFlags
	askFlags answerFlags
)

var askCmd = &cobra.Command{
	Use:   "ask <file> <question...>",
	Short: "Answer one question about a spreadsheet",
	Long: `Answer one question about a spreadsheet with the rule-based interpreter.

Recognized forms:
  average <column>                 mean of a numeric column
  how many <column> > 30           count rows matching a comparison (<, <=, >, >=, =)
  compare <numeric> by <category>  sum per category, with a bar chart
  distribution of <category>       value counts, with a bar chart

With --assist, questions the interpreter does not recognize are sent to the
local model together with a preview of the sheet.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, types, err := askSheet.loadSheet(args[0])
		if err != nil {
			return err
		}
		a := &answerer{t: t, types: types, flags: askFlags}
		return a.answer(cmd.Context(), cmd.OutOrStdout(), strings.Join(args[1:], " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askSheet.register(askCmd)
	askFlags.register(askCmd)
}
