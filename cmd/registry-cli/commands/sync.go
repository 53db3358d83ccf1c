package commands

import (
	"errors"
	"fmt"
	"os"
	"tgpc-backend/services/registry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var syncDryRun *bool
var syncForce *bool
var syncNoArchive *bool

func init() {
	syncDryRun = syncCmd.Flags().Bool("dry-run", false, "Run every step but never write the dataset.")
	syncForce = syncCmd.Flags().Bool("force", false, "Apply the sync even when safety checks fail.")
	syncNoArchive = syncCmd.Flags().Bool("no-archive", false, "Skip the snapshot archive after an applied sync.")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [--dry-run] [--force] [--no-archive]",
	Short: "Scrapes the full listing and merges it into the local dataset.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		database := openDatabase(cfg)
		if database != nil {
			defer database.Close()
		}
		service := registry.NewService(registry.ServiceOptions{
			Source:   newClient(cfg),
			Dataset:  newDataset(cfg),
			Database: database,
			Notifier: cfg.Notify,
		})

		opts := syncOptions(cfg)
		opts.DryRun = *syncDryRun
		opts.Force = *syncForce
		opts.SkipArchive = *syncNoArchive

		report, err := service.Sync(cmd.Context(), opts)
		var safetyErr *registry.SafetyError
		if errors.As(err, &safetyErr) {
			fmt.Fprintln(os.Stderr, "sync refused by safety checks:")
			for _, violation := range safetyErr.Violations {
				fmt.Fprintf(os.Stderr, "  - %s\n", violation)
			}
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Scraped", report.ScrapedTotal})
		t.AppendRow(table.Row{"Clean", report.Validation.Clean})
		t.AppendRow(table.Row{"Integrity score", fmt.Sprintf("%.3f", report.IntegrityScore)})
		t.AppendRow(table.Row{"New", report.NewCount})
		t.AppendRow(table.Row{"Changed", report.ChangedCount})
		t.AppendRow(table.Row{"Unchanged", report.UnchangedCount})
		t.AppendRow(table.Row{"Total", report.Total})
		t.AppendRow(table.Row{"Change percent", fmt.Sprintf("%.2f%%", report.ChangePercent)})
		t.AppendRow(table.Row{"Applied", report.Applied})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
