package state

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"reservevault/storage"
)

// Manager layers a journaled write overlay over a storage.Database. Writes
// stay in memory until Commit flushes them in one batch; snapshots let an
// operation roll back everything it touched, including writes made by
// external callbacks sharing the same manager.
type Manager struct {
	db      storage.Database
	dirty   map[string][]byte
	journal []journalEntry
}

type journalEntry struct {
	key     string
	prev    []byte
	hadPrev bool
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, dirty: make(map[string][]byte)}
}

func kvKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if value, ok := m.dirty[string(key)]; ok {
		if value == nil {
			return nil, false, nil
		}
		return append([]byte(nil), value...), true, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) set(key []byte, value []byte) {
	k := string(key)
	prev, hadPrev := m.dirty[k]
	m.journal = append(m.journal, journalEntry{key: k, prev: prev, hadPrev: hadPrev})
	if value == nil {
		m.dirty[k] = nil
		return
	}
	m.dirty[k] = append([]byte(nil), value...)
}

func (m *Manager) delete(key []byte) { m.set(key, nil) }

func (m *Manager) putRLP(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.set(key, encoded)
	return nil
}

func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	raw, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) flag(key []byte) (bool, error) {
	raw, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	return bytes.Equal(raw, []byte{1}), nil
}

func (m *Manager) setFlag(key []byte, enabled bool) {
	if enabled {
		m.set(key, []byte{1})
		return
	}
	m.delete(key)
}

// Snapshot returns an identifier for the current write position.
func (m *Manager) Snapshot() int { return len(m.journal) }

// RevertToSnapshot undoes every write made after the snapshot was taken.
func (m *Manager) RevertToSnapshot(id int) {
	if id < 0 {
		id = 0
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		entry := m.journal[i]
		if entry.hadPrev {
			m.dirty[entry.key] = entry.prev
		} else {
			delete(m.dirty, entry.key)
		}
	}
	if id < len(m.journal) {
		m.journal = m.journal[:id]
	}
}

// Pending reports how many keys are waiting to be committed.
func (m *Manager) Pending() int { return len(m.dirty) }

// Commit flushes the overlay to the database in one atomic batch.
func (m *Manager) Commit() error {
	if len(m.dirty) == 0 {
		m.journal = nil
		return nil
	}
	batch := m.db.NewBatch()
	for key, value := range m.dirty {
		if value == nil {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), value)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.dirty = make(map[string][]byte)
	m.journal = nil
	return nil
}

// Discard drops every uncommitted write.
func (m *Manager) Discard() {
	m.dirty = make(map[string][]byte)
	m.journal = nil
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func fromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	out, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, fmt.Errorf("state: stored value out of range")
	}
	return out, nil
}
