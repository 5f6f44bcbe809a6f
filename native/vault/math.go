package vault

import "github.com/holiman/uint256"

// Ledger quantities are held in uint256 but bounded to 128 bits, the width the
// custody records were originally packed into.
const ledgerWidthBits = 128

var maxLedgerValue = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), ledgerWidthBits), uint256.NewInt(1))

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}

func isPositive(v *uint256.Int) bool {
	return v != nil && !v.IsZero()
}

// addChecked adds two ledger quantities, rejecting results wider than the
// ledger width.
func addChecked(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(cloneInt(a), cloneInt(b))
	if overflow || sum.Gt(maxLedgerValue) {
		return nil, ErrOverflow
	}
	return sum, nil
}

// subChecked subtracts b from a, failing with underflow instead of wrapping.
func subChecked(a, b *uint256.Int, insufficient error) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(cloneInt(a), cloneInt(b))
	if underflow {
		return nil, insufficient
	}
	return diff, nil
}

// subFloor returns max(0, a-b).
func subFloor(a, b *uint256.Int) *uint256.Int {
	diff, underflow := new(uint256.Int).SubOverflow(cloneInt(a), cloneInt(b))
	if underflow {
		return new(uint256.Int)
	}
	return diff
}

func minInt(a, b *uint256.Int) *uint256.Int {
	if cloneInt(a).Lt(cloneInt(b)) {
		return cloneInt(a)
	}
	return cloneInt(b)
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
