// Package disk implements the ability to read and write the chain to a
// single JSON file on disk.
package disk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disastersync/ledger/foundation/ledger"
)

// Disk represents the serialization implementation for reading and storing
// the chain as a JSON array in one file. Every write replaces the whole
// file. This implements the ledger.Storage interface.
type Disk struct {
	path string
}

// New constructs a Disk value for use, creating the directory that will
// hold the chain file if it doesn't exist.
func New(path string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	return &Disk{path: path}, nil
}

// Path returns the location of the chain file.
func (d *Disk) Path() string {
	return d.path
}

// Close in this implementation has nothing to do since the file is
// opened and closed on every write.
func (d *Disk) Close() error {
	return nil
}

// Write marshals the full chain and replaces the chain file. The data is
// written to a temporary file first and renamed over the chain file so a
// reader never sees a partially written chain.
func (d *Disk) Write(blocks []ledger.Block) error {

	// Marshal the chain for writing to disk in a more human readable format.
	// HTML escaping is turned off so the stored data keeps the same bytes
	// that were hashed.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(blocks); err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// ReadAll reads the chain file and returns the blocks it contains.
func (d *Disk) ReadAll() ([]ledger.Block, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, err
	}

	var blocks []ledger.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ledger.ErrCorrupt, d.path, err)
	}

	return blocks, nil
}

// Reset moves an existing chain file aside by renaming it with a
// ".corrupt-<unix time>" suffix.
func (d *Disk) Reset() error {
	if _, err := os.Stat(d.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	backup := d.path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	return os.Rename(d.path, backup)
}
