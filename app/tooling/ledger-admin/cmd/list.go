package cmd

import (
	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/spf13/cobra"
)

var listType string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the blocks in the ledger file.",
	RunE:  listRun,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "Only print blocks of this type.")
}

func listRun(cmd *cobra.Command, args []string) error {
	blocks, err := readChain()
	if err != nil {
		return err
	}

	if listType != "" {
		filtered := make([]ledger.Block, 0, len(blocks))
		for _, block := range blocks {
			if block.Type == listType {
				filtered = append(filtered, block)
			}
		}
		blocks = filtered
	}

	return printJSON(cmd.OutOrStdout(), blocks)
}
