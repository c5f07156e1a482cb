// Package cmd contains the ledger admin commands.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/disastersync/ledger/foundation/ledger/storage/disk"
	"github.com/spf13/cobra"
)

var filePath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "zdata/blockchain.json", "Path to the ledger file.")
}

var rootCmd = &cobra.Command{
	Use:           "ledger-admin",
	Short:         "Inspect and maintain an audit ledger file",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command selected by the program arguments.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// readChain loads the chain from the ledger file without changing it.
func readChain() ([]ledger.Block, error) {
	d, err := disk.New(filePath)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	blocks, err := d.ReadAll()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no ledger at %s", filePath)
		}
		return nil, err
	}

	return blocks, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
