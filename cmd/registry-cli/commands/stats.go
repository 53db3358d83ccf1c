package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
	"tgpc-backend/services/registry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints dataset statistics: totals, categories and the last sync run.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		dataset := newDataset(cfg)

		records, err := dataset.Load(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		byCategory := map[string]int{}
		for _, record := range records {
			byCategory[record.Category]++
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Category", "Count"})
		for category, count := range byCategory {
			t.AppendRow(table.Row{category, count})
		}
		t.AppendFooter(table.Row{"Total", len(records)})
		t.SetStyle(table.StyleRounded)
		t.Render()

		database := openDatabase(cfg)
		if database == nil {
			return
		}
		defer database.Close()

		run, err := registry.NewMirror(database).LatestSyncRun(cmd.Context())
		if errors.Is(err, sql.ErrNoRows) {
			fmt.Println("no sync runs recorded yet")
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Printf(
			"last sync: %s, %d total, %d new, %d changed, integrity %.3f\n",
			time.Unix(run.RanAt, 0).Format(time.RFC3339),
			run.Total, run.NewCount, run.ChangedCount, run.IntegrityScore,
		)
	},
}
