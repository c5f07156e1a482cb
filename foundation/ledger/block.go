package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// GenesisType is the type tag carried by the first block in every chain.
const GenesisType = "GENESIS"

// ZeroHash is the previous hash recorded on the genesis block. It has the
// same length as a hex encoded SHA-256 digest.
var ZeroHash = strings.Repeat("0", 64)

// TimeFormat is the layout used for block timestamps. It matches the
// millisecond ISO-8601 form produced by JavaScript's toISOString so existing
// ledger files hash the same way.
const TimeFormat = "2006-01-02T15:04:05.000Z"

const (
	genesisID      = "genesis"
	genesisMessage = "DisasterSync Blockchain Initialized"
)

// =============================================================================

// Block represents a single immutable event recorded in the ledger.
type Block struct {
	ID           string          `json:"id"`
	Index        int             `json:"index"`
	Type         string          `json:"type"`
	Data         json.RawMessage `json:"data"`
	Timestamp    string          `json:"timestamp"`
	PreviousHash string          `json:"previousHash"`
	Hash         string          `json:"hash"`
}

// hashedFields is the canonical form of a block that is hashed. The field
// order is part of the file format and must not change.
type hashedFields struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Data         json.RawMessage `json:"data"`
	Timestamp    string          `json:"timestamp"`
	PreviousHash string          `json:"previousHash"`
}

// ComputeHash recalculates the SHA-256 hash for the block from its id, type,
// data, timestamp and previous hash. The stored Hash field is ignored.
func (b Block) ComputeHash() (string, error) {
	data, err := canonicalJSON(hashedFields{
		ID:           b.ID,
		Type:         b.Type,
		Data:         b.Data,
		Timestamp:    b.Timestamp,
		PreviousHash: b.PreviousHash,
	})
	if err != nil {
		return "", fmt.Errorf("canonical encoding blk[%d]: %w", b.Index, err)
	}

	hash := sha256.Sum256(data)
	return common.Bytes2Hex(hash[:]), nil
}

// Clone returns a deep copy of the block so callers can't modify the
// data held by the ledger.
func (b Block) Clone() Block {
	if b.Data != nil {
		data := make(json.RawMessage, len(b.Data))
		copy(data, b.Data)
		b.Data = data
	}
	return b
}

// Decode unmarshals the block data into the specified value.
func (b Block) Decode(v any) error {
	return json.Unmarshal(b.Data, v)
}

// String implements the Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d]: type[%s]: hash[%s]", b.Index, b.Type, b.Hash)
}

// =============================================================================

// newGenesis constructs the first block of a new chain.
func newGenesis(now time.Time) (Block, error) {
	data, err := encodeData(map[string]string{"message": genesisMessage})
	if err != nil {
		return Block{}, err
	}

	genesis := Block{
		ID:           genesisID,
		Index:        0,
		Type:         GenesisType,
		Data:         data,
		Timestamp:    formatTime(now),
		PreviousHash: ZeroHash,
	}

	if genesis.Hash, err = genesis.ComputeHash(); err != nil {
		return Block{}, err
	}

	return genesis, nil
}

// newBlock constructs the block at the specified index that follows the
// previous block.
func newBlock(prev Block, index int, typ string, data json.RawMessage, now time.Time) (Block, error) {

	// Under a single writer the chain timestamps must never go backwards,
	// even if the wall clock does.
	if prevTime, err := time.Parse(time.RFC3339Nano, prev.Timestamp); err == nil && now.Before(prevTime) {
		now = prevTime
	}

	nb := Block{
		ID:           uuid.NewString(),
		Index:        index,
		Type:         typ,
		Data:         data,
		Timestamp:    formatTime(now),
		PreviousHash: prev.Hash,
	}

	hash, err := nb.ComputeHash()
	if err != nil {
		return Block{}, err
	}
	nb.Hash = hash

	return nb, nil
}

// encodeData converts a caller payload into compact JSON. A nil payload is
// recorded as an empty object.
func encodeData(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case nil:
		return json.RawMessage("{}"), nil

	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("{}"), nil
		}

		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return nil, fmt.Errorf("invalid raw json: %w", err)
		}
		return buf.Bytes(), nil
	}

	b, err := canonicalJSON(data)
	if err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}

	return b, nil
}

// canonicalJSON marshals the value without HTML escaping and without the
// trailing newline the encoder adds, matching JSON.stringify output.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// formatTime renders the time in the ledger timestamp layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
