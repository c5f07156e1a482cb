package cmd

import (
	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print a summary of the ledger file.",
	RunE:  statsRun,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command, args []string) error {
	blocks, err := readChain()
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), ledger.ChainStats(blocks))
}
