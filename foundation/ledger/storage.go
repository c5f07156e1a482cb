package ledger

import "errors"

// ErrCorrupt is wrapped by Storage implementations when the stored chain
// exists but can't be parsed.
var ErrCorrupt = errors.New("stored chain is corrupt")

// Storage interface represents the behavior required to be implemented by any
// package providing support for persisting the chain. The ledger always hands
// over the complete chain on Write.
type Storage interface {

	// Write replaces whatever is stored with the specified blocks.
	Write(blocks []Block) error

	// ReadAll returns the stored chain in index order. An error wrapping
	// fs.ErrNotExist means nothing has been stored yet and an error wrapping
	// ErrCorrupt means the stored content could not be parsed.
	ReadAll() ([]Block, error)

	// Reset sets aside the currently stored chain so a new one can be written.
	Reset() error

	// Close releases any resources held by the storage.
	Close() error
}
