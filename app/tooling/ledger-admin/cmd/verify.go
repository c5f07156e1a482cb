package cmd

import (
	"errors"

	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/spf13/cobra"
)

// ErrInvalidChain is returned when the ledger file fails verification.
var ErrInvalidChain = errors.New("chain failed verification")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the ledger file.",
	RunE:  verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) error {
	blocks, err := readChain()
	if err != nil {
		return err
	}

	res := ledger.VerifyChain(blocks)
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}

	if !res.Valid {
		return ErrInvalidChain
	}

	return nil
}
