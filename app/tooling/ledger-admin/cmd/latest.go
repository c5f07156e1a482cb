package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the last block in the ledger file.",
	RunE:  latestRun,
}

func init() {
	rootCmd.AddCommand(latestCmd)
}

func latestRun(cmd *cobra.Command, args []string) error {
	blocks, err := readChain()
	if err != nil {
		return err
	}

	if len(blocks) == 0 {
		return errors.New("ledger holds no blocks")
	}

	return printJSON(cmd.OutOrStdout(), blocks[len(blocks)-1])
}
