package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var fetchLimit *int

func init() {
	fetchLimit = fetchCmd.Flags().Int("limit", 20, "How many rows to print, 0 prints everything.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--limit <n>]",
	Short: "Scrapes the pharmacist listing and prints it without touching the dataset.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := newClient(cfg)

		rows, err := client.FetchListing(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"S.No", "Registration No", "Name", "Father Name", "Category"})

		for i, row := range rows {
			if *fetchLimit > 0 && i >= *fetchLimit {
				break
			}
			t.AppendRow(table.Row{row.Serial, row.RegistrationNumber, row.Name, row.FatherName, row.Category})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
		fmt.Printf("%d rows total\n", len(rows))
	},
}
