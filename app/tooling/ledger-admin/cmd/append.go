package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/disastersync/ledger/foundation/ledger/storage/disk"
	"github.com/disastersync/ledger/foundation/logger"
	"github.com/spf13/cobra"
)

var (
	appendType string
	appendData string
)

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a block to the ledger file.",
	RunE:  appendRun,
}

func init() {
	rootCmd.AddCommand(appendCmd)
	appendCmd.Flags().StringVarP(&appendType, "type", "t", "", "Event type of the block.")
	appendCmd.Flags().StringVarP(&appendData, "data", "d", "{}", "JSON document to record.")
	appendCmd.MarkFlagRequired("type")
}

func appendRun(cmd *cobra.Command, args []string) error {
	if !json.Valid([]byte(appendData)) {
		return errors.New("data must be a JSON document")
	}

	log, err := logger.New("LEDGER-ADMIN", "stderr")
	if err != nil {
		return err
	}
	defer log.Sync()

	d, err := disk.New(filePath)
	if err != nil {
		return err
	}

	ldg, err := ledger.New(ledger.Config{
		Storage: d,
		EvHandler: func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...), "path", filePath)
		},
	})
	if err != nil {
		return err
	}
	defer ldg.Close()

	block, err := ldg.Append(appendType, json.RawMessage(appendData))
	if err != nil {
		return err
	}

	if ldg.Unpersisted() > 0 {
		return fmt.Errorf("block %d was not written to %s", block.Index, filePath)
	}

	return printJSON(cmd.OutOrStdout(), block)
}
