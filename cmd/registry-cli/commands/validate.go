package commands

import (
	"fmt"
	"os"
	"tgpc-backend/services/registry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var validateVerbose *bool

func init() {
	validateVerbose = validateCmd.Flags().Bool("verbose", false, "Print every validation issue.")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [--verbose]",
	Short: "Validates the local dataset and prints an integrity report.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		dataset := newDataset(cfg)

		records, err := dataset.Load(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		_, report := registry.ValidateAll(cmd.Context(), records)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Total", report.Total})
		t.AppendRow(table.Row{"Clean", report.Clean})
		t.AppendRow(table.Row{"Dropped", report.Dropped})
		t.AppendRow(table.Row{"Duplicates", report.Duplicates})
		t.AppendRow(table.Row{"Integrity score", fmt.Sprintf("%.3f", report.IntegrityScore())})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if *validateVerbose {
			for regNo, issues := range report.Issues {
				for _, issue := range issues {
					fmt.Printf("%s: %s\n", regNo, issue)
				}
			}
		}
	},
}
