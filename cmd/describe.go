package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
	"github.com/KaramelBytes/sheetask-cli/internal/utils"
)

var (
	describeSheet      sheetFlags
	describeSampleRows int
	describeOutput     string
	describeJSON       bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Show a data preview: column types, summary stats and sample rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, types, err := describeSheet.loadSheet(args[0])
		if err != nil {
			return err
		}
		rows := config().PreviewRows
		if cmd.Flags().Changed("sample-rows") {
			rows = describeSampleRows
		}
		rep := analysis.Describe(t, types, rows)

		var out []byte
		if describeJSON {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(rep.Markdown())
		}
		if describeOutput != "" {
			if err := utils.SafeWriteFile(describeOutput, out, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote preview to %s\n", describeOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeSheet.register(describeCmd)
	describeCmd.Flags().IntVar(&describeSampleRows, "sample-rows", 5, "number of sample rows in the preview (default: config preview_rows)")
	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", "", "write the preview to a file instead of stdout")
	describeCmd.Flags().BoolVar(&describeJSON, "json", false, "emit the preview as JSON")
}
