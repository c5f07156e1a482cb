// Package memory implements the ability to read and write the chain to
// memory using a slice.
package memory

import (
	"io/fs"
	"sync"

	"github.com/disastersync/ledger/foundation/ledger"
)

// Memory represents the serialization implementation for reading and storing
// the chain in memory using a slice. This implements the ledger.Storage
// interface.
type Memory struct {
	mu      sync.RWMutex
	blocks  []ledger.Block
	stored  bool
	readErr error
	failErr error
	writes  int
	resets  int
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write replaces the stored chain with a copy of the specified blocks.
func (m *Memory) Write(blocks []ledger.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}

	m.blocks = copyBlocks(blocks)
	m.stored = true
	m.writes++

	return nil
}

// ReadAll returns a copy of the stored chain.
func (m *Memory) ReadAll() ([]ledger.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.readErr != nil {
		return nil, m.readErr
	}

	if !m.stored {
		return nil, fs.ErrNotExist
	}

	return copyBlocks(m.blocks), nil
}

// Reset will clear out the stored chain.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	m.stored = false
	m.readErr = nil
	m.resets++

	return nil
}

// =============================================================================

// Seed replaces the stored chain without counting as a ledger write.
func (m *Memory) Seed(blocks []ledger.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = copyBlocks(blocks)
	m.stored = true
}

// FailReads makes every ReadAll return the specified error until the next
// Reset. A nil error restores normal reads.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readErr = err
}

// FailWrites makes every Write return the specified error. A nil error
// restores normal writes.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failErr = err
}

// Writes returns the number of successful writes.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}

// Resets returns the number of times the stored chain was set aside.
func (m *Memory) Resets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.resets
}

// copyBlocks makes a deep copy of the blocks.
func copyBlocks(blocks []ledger.Block) []ledger.Block {
	if blocks == nil {
		return nil
	}

	out := make([]ledger.Block, len(blocks))
	for i, block := range blocks {
		out[i] = block.Clone()
	}
	return out
}
