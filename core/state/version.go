package state

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// StateVersion identifies the expected on-disk record layout. Increment it
// whenever a stored record changes shape.
const StateVersion uint32 = 1

var (
	stateVersionKey = kvKey([]byte("state/version"))
	// ErrStateVersionMismatch indicates the stored schema version does not
	// match the version supported by the current binary.
	ErrStateVersionMismatch = errors.New("state: schema version mismatch")
)

// SetStateVersion records the provided schema version.
func (m *Manager) SetStateVersion(version uint32) error {
	if m == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], version)
	m.set(stateVersionKey, buf[:])
	return nil
}

// StoredStateVersion returns the recorded schema version, or zero for a fresh
// database.
func (m *Manager) StoredStateVersion() (uint32, error) {
	raw, ok, err := m.get(stateVersionKey)
	if err != nil || !ok {
		return 0, err
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf("state: malformed version record")
	}
	return binary.BigEndian.Uint32(raw), nil
}

// EnsureStateVersion stamps a fresh database with StateVersion and rejects a
// database written by an incompatible binary.
func (m *Manager) EnsureStateVersion() error {
	stored, err := m.StoredStateVersion()
	if err != nil {
		return err
	}
	switch stored {
	case 0:
		if err := m.SetStateVersion(StateVersion); err != nil {
			return err
		}
		return m.Commit()
	case StateVersion:
		return nil
	default:
		return fmt.Errorf("%w: stored=%d supported=%d", ErrStateVersionMismatch, stored, StateVersion)
	}
}
