package state

import "github.com/holiman/uint256"

var (
	bankBalancePrefix   = []byte("bank/balance/")
	bankAllowancePrefix = []byte("bank/allowance/")
)

func symbolPart(symbol string) []byte {
	return append([]byte(symbol), ':')
}

// TokenBalance returns the holder's balance of symbol.
func (m *Manager) TokenBalance(symbol string, addr [20]byte) (*uint256.Int, error) {
	raw, ok, err := m.get(kvKey(bankBalancePrefix, symbolPart(symbol), addr[:]))
	if err != nil || !ok {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

// SetTokenBalance stores the holder's balance of symbol.
func (m *Manager) SetTokenBalance(symbol string, addr [20]byte, amount *uint256.Int) error {
	key := kvKey(bankBalancePrefix, symbolPart(symbol), addr[:])
	if amount == nil || amount.IsZero() {
		m.delete(key)
		return nil
	}
	m.set(key, amount.Bytes())
	return nil
}

// TokenAllowance returns how much spender may pull from owner.
func (m *Manager) TokenAllowance(symbol string, owner, spender [20]byte) (*uint256.Int, error) {
	raw, ok, err := m.get(kvKey(bankAllowancePrefix, symbolPart(symbol), owner[:], spender[:]))
	if err != nil || !ok {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

// SetTokenAllowance stores how much spender may pull from owner.
func (m *Manager) SetTokenAllowance(symbol string, owner, spender [20]byte, amount *uint256.Int) error {
	key := kvKey(bankAllowancePrefix, symbolPart(symbol), owner[:], spender[:])
	if amount == nil || amount.IsZero() {
		m.delete(key)
		return nil
	}
	m.set(key, amount.Bytes())
	return nil
}
