package state

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

var (
	distributorRootPrefix    = []byte("distributor/root/")
	distributorClaimedPrefix = []byte("distributor/claimed/")
)

func epochBytes(epoch uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], epoch)
	return buf[:]
}

// DistributorRootGet returns the root published for epoch.
func (m *Manager) DistributorRootGet(epoch uint64) ([32]byte, bool, error) {
	var root [32]byte
	raw, ok, err := m.get(kvKey(distributorRootPrefix, epochBytes(epoch)))
	if err != nil || !ok {
		return root, false, err
	}
	copy(root[:], raw)
	return root, true, nil
}

// DistributorRootPut stores the root for epoch.
func (m *Manager) DistributorRootPut(epoch uint64, root [32]byte) error {
	m.set(kvKey(distributorRootPrefix, epochBytes(epoch)), root[:])
	return nil
}

// DistributorClaimedGet returns the cumulative amount paid to claimant.
func (m *Manager) DistributorClaimedGet(epoch uint64, claimant [20]byte) (*uint256.Int, error) {
	raw, ok, err := m.get(kvKey(distributorClaimedPrefix, epochBytes(epoch), claimant[:]))
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).SetBytes(raw), nil
}

// DistributorClaimedPut records the cumulative amount paid to claimant.
func (m *Manager) DistributorClaimedPut(epoch uint64, claimant [20]byte, amount *uint256.Int) error {
	value := new(uint256.Int)
	if amount != nil {
		value = amount
	}
	m.set(kvKey(distributorClaimedPrefix, epochBytes(epoch), claimant[:]), value.Bytes())
	return nil
}
