package state

import "github.com/holiman/uint256"

var venueBidPrefix = []byte("venue/bid/")

// VenueBidGet returns the cumulative bid bidder placed on rightID at house.
func (m *Manager) VenueBidGet(house [20]byte, rightID [32]byte, bidder [20]byte) (*uint256.Int, error) {
	raw, ok, err := m.get(kvKey(venueBidPrefix, house[:], rightID[:], bidder[:]))
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).SetBytes(raw), nil
}

// VenueBidPut stores the cumulative bid bidder placed on rightID at house.
func (m *Manager) VenueBidPut(house [20]byte, rightID [32]byte, bidder [20]byte, amount *uint256.Int) error {
	key := kvKey(venueBidPrefix, house[:], rightID[:], bidder[:])
	if amount == nil || amount.IsZero() {
		m.delete(key)
		return nil
	}
	m.set(key, amount.Bytes())
	return nil
}
