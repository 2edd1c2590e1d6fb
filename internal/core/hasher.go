package core

import (
	"LandLedger/internal/event"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const GenesisHashSeed = "LandLedger:genesis:v1"

// StateHasher chains committed changesets into a tamper-evident hash.
type StateHasher struct {
	prevHash [32]byte
}

// NewStateHasher initializes with genesis hash
func NewStateHasher() *StateHasher {
	return &StateHasher{
		prevHash: sha256.Sum256([]byte(GenesisHashSeed)),
	}
}

// ComputeHash returns SHA-256(prev_hash || block || tx_index || log_index || digest)
// without advancing the chain.
func (h *StateHasher) ComputeHash(pos event.Position, digest []byte) [32]byte {
	hasher := sha256.New()
	hasher.Write(h.prevHash[:])

	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], pos.Block)
	binary.LittleEndian.PutUint64(buf[8:16], pos.TxIndex)
	binary.LittleEndian.PutUint64(buf[16:24], pos.LogIndex)
	hasher.Write(buf[:])

	hasher.Write(digest)

	var hash [32]byte
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// Advance moves the chain tip to hash once its changeset is committed.
func (h *StateHasher) Advance(hash [32]byte) {
	h.prevHash = hash
}

// PrevHash returns current chain tip
func (h *StateHasher) PrevHash() [32]byte {
	return h.prevHash
}

// Restore resumes the chain from a hex-encoded tip.
func (h *StateHasher) Restore(tip string) error {
	b, err := hex.DecodeString(tip)
	if err != nil {
		return fmt.Errorf("decode chain hash: %w", err)
	}
	if len(b) != len(h.prevHash) {
		return fmt.Errorf("chain hash has %d bytes, want %d", len(b), len(h.prevHash))
	}
	copy(h.prevHash[:], b)
	return nil
}
