package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(countCmd)
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Prints how many pharmacists the council currently lists.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := newClient(cfg)

		count, err := client.TotalCount(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println(count)
	},
}
