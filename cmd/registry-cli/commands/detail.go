package commands

import (
	"fmt"
	"os"
	"tgpc-backend/lib/scrapers/tgpc"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detailCmd)
}

var detailCmd = &cobra.Command{
	Use:   "detail <registration number>",
	Short: "Looks a single pharmacist up on the council website.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := newClient(cfg)

		detail, err := client.FetchDetail(cmd.Context(), tgpc.DetailQuery{
			RegistrationNumber: args[0],
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Registration No", detail.RegistrationNumber})
		t.AppendRow(table.Row{"Name", detail.Name})
		t.AppendRow(table.Row{"Father Name", detail.FatherName})
		t.AppendRow(table.Row{"Category", detail.Category})
		if detail.Gender != "" {
			t.AppendRow(table.Row{"Gender", detail.Gender})
		}
		if detail.Status != "" {
			t.AppendRow(table.Row{"Status", detail.Status})
		}
		if !detail.ValidUpto.IsZero() {
			t.AppendRow(table.Row{"Valid Upto", detail.ValidUpto.Format("02-Jan-2006")})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if len(detail.Education) > 0 {
			edu := table.NewWriter()
			edu.SetOutputMirror(os.Stdout)
			edu.AppendHeader(table.Row{"Qualification", "Board/University", "College", "From", "To"})
			for _, e := range detail.Education {
				edu.AppendRow(table.Row{e.Qualification, e.BoardUniversity, e.CollegeName, e.YearFrom, e.YearTo})
			}
			edu.SetStyle(table.StyleRounded)
			edu.Render()
		}

		if detail.Work != nil {
			fmt.Printf(
				"Works at: %s, %s, %s %s\n",
				detail.Work.Address, detail.Work.District, detail.Work.State, detail.Work.Pincode,
			)
		}
	},
}
