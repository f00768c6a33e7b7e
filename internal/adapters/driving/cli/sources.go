package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if aggregator == nil {
			return errors.New("aggregator not configured")
		}
		names := aggregator.Names()
		if len(names) == 0 {
			cmd.Println("No sources registered.")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
