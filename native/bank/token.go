package bank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidSymbol         = errors.New("bank: token symbol required")
	ErrInsufficientBalance   = errors.New("bank: insufficient balance")
	ErrInsufficientAllowance = errors.New("bank: insufficient allowance")
	ErrBalanceOverflow       = errors.New("bank: balance overflow")
	ErrZeroAddress           = errors.New("bank: zero address")
)

// State exposes the persistence required by the token ledger.
type State interface {
	TokenBalance(symbol string, addr [20]byte) (*uint256.Int, error)
	SetTokenBalance(symbol string, addr [20]byte, amount *uint256.Int) error
	TokenAllowance(symbol string, owner, spender [20]byte) (*uint256.Int, error)
	SetTokenAllowance(symbol string, owner, spender [20]byte, amount *uint256.Int) error
}

// Token is a fungible asset ledger keyed by symbol. Balances and allowances
// live in the shared state so token movements revert together with the
// operation that triggered them.
type Token struct {
	symbol string
	state  State
}

// NewToken binds a token symbol to the supplied state backend.
func NewToken(symbol string, state State) (*Token, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return nil, ErrInvalidSymbol
	}
	if state == nil {
		return nil, fmt.Errorf("bank: state required for %s", normalized)
	}
	return &Token{symbol: normalized, state: state}, nil
}

// Symbol returns the normalised token symbol.
func (t *Token) Symbol() string { return t.symbol }

// BalanceOf returns the holder's balance.
func (t *Token) BalanceOf(addr [20]byte) (*uint256.Int, error) {
	bal, err := t.state.TokenBalance(t.symbol, addr)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return new(uint256.Int), nil
	}
	return bal, nil
}

// Allowance returns how much spender may pull from owner.
func (t *Token) Allowance(owner, spender [20]byte) (*uint256.Int, error) {
	allowance, err := t.state.TokenAllowance(t.symbol, owner, spender)
	if err != nil {
		return nil, err
	}
	if allowance == nil {
		return new(uint256.Int), nil
	}
	return allowance, nil
}

// Mint credits new units to the recipient.
func (t *Token) Mint(to [20]byte, amount *uint256.Int) error {
	if isZero(to) {
		return ErrZeroAddress
	}
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(bal, normalize(amount))
	if overflow {
		return ErrBalanceOverflow
	}
	return t.state.SetTokenBalance(t.symbol, to, next)
}

// Transfer moves amount from one holder to another.
func (t *Token) Transfer(from, to [20]byte, amount *uint256.Int) error {
	if isZero(from) || isZero(to) {
		return ErrZeroAddress
	}
	amount = normalize(amount)
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, t.symbol, fromBal.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	nextTo, overflow := new(uint256.Int).AddOverflow(toBal, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	if err := t.state.SetTokenBalance(t.symbol, from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return t.state.SetTokenBalance(t.symbol, to, nextTo)
}

// Approve sets (not increments) the amount spender may pull from owner.
func (t *Token) Approve(owner, spender [20]byte, amount *uint256.Int) error {
	if isZero(owner) || isZero(spender) {
		return ErrZeroAddress
	}
	return t.state.SetTokenAllowance(t.symbol, owner, spender, normalize(amount))
}

// TransferFrom moves amount from owner to recipient using spender's allowance.
func (t *Token) TransferFrom(spender, owner, to [20]byte, amount *uint256.Int) error {
	amount = normalize(amount)
	allowance, err := t.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.Transfer(owner, to, amount); err != nil {
		return err
	}
	return t.state.SetTokenAllowance(t.symbol, owner, spender, new(uint256.Int).Sub(allowance, amount))
}

func normalize(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}

func isZero(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
