package commands

import (
	"fmt"
	"os"
	"strings"
	"tgpc-backend/services/registry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchLimit *int

func init() {
	searchLimit = searchCmd.Flags().Int("limit", 10, "Maximum number of results.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <registration number or name>",
	Short: "Searches the local dataset by registration number or fuzzy name.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		dataset := newDataset(cfg)

		records, err := dataset.Load(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		results := registry.Search(records, strings.Join(args, " "), *searchLimit)
		if len(results) == 0 {
			fmt.Println("no matches")
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Score", "Registration No", "Name", "Father Name", "Category"})
		for _, result := range results {
			t.AppendRow(table.Row{
				fmt.Sprintf("%.2f", result.Score),
				result.Record.RegistrationNumber,
				result.Record.Name,
				result.Record.FatherName,
				result.Record.Category,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
