// Package ledger implements an append-only, hash chained audit log. Each
// block records an event and links to its predecessor by hash so any
// modification of recorded history can be detected.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"
)

// ErrNoStorage is returned by New when no storage is configured.
var ErrNoStorage = errors.New("ledger storage not provided")

// Set of reasons a chain fails verification.
const (
	FailInvalidGenesis = "invalid genesis"
	FailHashMismatch   = "hash mismatch"
	FailBrokenLink     = "broken link"
	FailIndexMismatch  = "index mismatch"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Storage   Storage
	EvHandler EventHandler
	Now       func() time.Time
}

// VerificationResult represents the outcome of checking the integrity of
// the chain. InvalidBlock is only set when Valid is false.
type VerificationResult struct {
	Valid        bool   `json:"valid"`
	Error        string `json:"error,omitempty"`
	InvalidBlock *int   `json:"invalidBlock,omitempty"`
	Message      string `json:"message"`
}

// Stats represents a summary of the chain.
type Stats struct {
	TotalBlocks  int            `json:"totalBlocks"`
	LatestBlock  string         `json:"latestBlock"`
	BlocksByType map[string]int `json:"blocksByType"`
	GenesisTime  string         `json:"genesisTime"`
	LastActivity string         `json:"lastActivity"`
	Unpersisted  int            `json:"unpersisted"`
}

// Ledger manages the in memory chain and mirrors it to storage.
type Ledger struct {
	mu        sync.RWMutex
	chain     []Block
	persisted int

	storage   Storage
	evHandler EventHandler
	now       func() time.Time
}

// New constructs a ledger by loading the chain from storage. When nothing is
// stored, or the stored chain can't be read, a new chain holding only a
// genesis block is created and written. A loaded chain is not verified.
func New(cfg Config) (*Ledger, error) {
	if cfg.Storage == nil {
		return nil, ErrNoStorage
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	l := Ledger{
		storage:   cfg.Storage,
		evHandler: ev,
		now:       now,
	}

	blocks, err := cfg.Storage.ReadAll()
	switch {
	case err == nil && len(blocks) > 0:
		l.chain = blocks
		l.persisted = len(blocks)
		ev("ledger: New: loaded: blocks[%d]", len(blocks))
		return &l, nil

	case err == nil:
		ev("ledger: New: storage holds no blocks")

	case errors.Is(err, fs.ErrNotExist):
		ev("ledger: New: no chain in storage")

	default:

		// Whatever is there is set aside rather than overwritten so an
		// operator can recover it.
		ev("ledger: New: WARNING: unable to load chain, starting a new one: %s", err)
		if err := cfg.Storage.Reset(); err != nil {
			ev("ledger: New: ERROR: setting aside stored chain: %s", err)
		}
	}

	genesis, err := newGenesis(now())
	if err != nil {
		return nil, fmt.Errorf("creating genesis block: %w", err)
	}

	l.chain = []Block{genesis}
	l.persist()

	ev("ledger: New: genesis block created: hash[%s]", genesis.Hash)

	return &l, nil
}

// Close releases the underlying storage.
func (l *Ledger) Close() error {
	return l.storage.Close()
}

// Append adds a new block for the specified event type and data to the end of
// the chain and writes the chain to storage. An error is only returned when
// the data can't be encoded as JSON. A storage failure is reported through
// the event handler and the block remains part of the chain in memory.
func (l *Ledger) Append(typ string, data any) (Block, error) {
	raw, err := encodeData(data)
	if err != nil {
		return Block{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.chain[len(l.chain)-1]

	block, err := newBlock(prev, len(l.chain), typ, raw, l.now())
	if err != nil {
		return Block{}, err
	}

	l.chain = append(l.chain, block)
	l.persist()

	l.evHandler("ledger: Append: %s", block)

	return block.Clone(), nil
}

// All returns a copy of every block in the chain, oldest first.
func (l *Ledger) All() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	blocks := make([]Block, len(l.chain))
	for i, block := range l.chain {
		blocks[i] = block.Clone()
	}
	return blocks
}

// Latest returns a copy of the last block in the chain.
func (l *Ledger) Latest() Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.chain[len(l.chain)-1].Clone()
}

// Len returns the number of blocks in the chain including genesis.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// Unpersisted returns the number of blocks held in memory that the last
// successful storage write did not include.
func (l *Ledger) Unpersisted() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain) - l.persisted
}

// Verify walks the chain recalculating every hash and checking every link.
// It stops at the first block that fails.
func (l *Ledger) Verify() VerificationResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return VerifyChain(l.chain)
}

// Stats returns a summary of the chain.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return stats(l.chain, len(l.chain)-l.persisted)
}

// =============================================================================

// persist writes the full chain to storage. It must be called while
// holding the write lock or before the ledger is shared.
func (l *Ledger) persist() {
	if err := l.storage.Write(l.chain); err != nil {
		l.evHandler("ledger: persist: ERROR: blocks[%d] unpersisted[%d]: %s", len(l.chain), len(l.chain)-l.persisted, err)
		return
	}

	l.persisted = len(l.chain)
}

// VerifyChain performs the integrity checks over the specified chain, such
// as one read directly from storage.
func VerifyChain(chain []Block) VerificationResult {
	if len(chain) == 0 {
		return invalid(0, FailInvalidGenesis, "Chain is empty, genesis block missing!")
	}

	genesis := chain[0]
	switch {
	case genesis.Index != 0, genesis.Type != GenesisType, genesis.PreviousHash != ZeroHash:
		return invalid(0, FailInvalidGenesis, "Block #0 is not a valid genesis block!")

	case !hashMatches(genesis):
		return invalid(0, FailInvalidGenesis, "Block #0 hash mismatch. Genesis has been tampered!")
	}

	for i := 1; i < len(chain); i++ {
		block := chain[i]

		if !hashMatches(block) {
			return invalid(i, FailHashMismatch, fmt.Sprintf("Block #%d hash mismatch. Data has been tampered!", i))
		}

		if block.PreviousHash != chain[i-1].Hash {
			return invalid(i, FailBrokenLink, fmt.Sprintf("Block #%d previous hash mismatch. Chain is broken!", i))
		}

		if block.Index != i {
			return invalid(i, FailIndexMismatch, fmt.Sprintf("Block #%d records index %d. Chain order is broken!", i, block.Index))
		}
	}

	return VerificationResult{
		Valid:   true,
		Message: "Blockchain integrity verified. No tampering detected.",
	}
}

// ChainStats returns a summary of the specified chain.
func ChainStats(chain []Block) Stats {
	return stats(chain, 0)
}

// stats summarizes the chain.
func stats(chain []Block, unpersisted int) Stats {
	byType := make(map[string]int)
	for _, block := range chain {
		byType[block.Type]++
	}

	if len(chain) == 0 {
		return Stats{BlocksByType: byType}
	}

	latest := chain[len(chain)-1]

	hash := latest.Hash
	if len(hash) > 16 {
		hash = hash[:16]
	}

	return Stats{
		TotalBlocks:  len(chain),
		LatestBlock:  hash + "...",
		BlocksByType: byType,
		GenesisTime:  chain[0].Timestamp,
		LastActivity: latest.Timestamp,
		Unpersisted:  unpersisted,
	}
}

// hashMatches recalculates the hash for the block and compares it to
// the stored hash.
func hashMatches(block Block) bool {
	hash, err := block.ComputeHash()
	if err != nil {
		return false
	}
	return hash == block.Hash
}

// invalid constructs a failed verification result for the block.
func invalid(index int, reason string, msg string) VerificationResult {
	return VerificationResult{
		Valid:        false,
		Error:        reason,
		InvalidBlock: &index,
		Message:      msg,
	}
}
