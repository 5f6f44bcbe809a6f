package bank

import "github.com/holiman/uint256"

// Custody binds a token to the account that holds pooled funds on behalf of
// depositors. It is the asset provider handed to the vault and distributor.
type Custody struct {
	token  *Token
	holder [20]byte
}

// NewCustody returns a custody view of token held by holder.
func NewCustody(token *Token, holder [20]byte) *Custody {
	return &Custody{token: token, holder: holder}
}

// Holder returns the custodial account.
func (c *Custody) Holder() [20]byte { return c.holder }

// Token exposes the underlying ledger.
func (c *Custody) Token() *Token { return c.token }

// TransferIn pulls amount from a depositor into custody.
func (c *Custody) TransferIn(from [20]byte, amount *uint256.Int) error {
	return c.token.Transfer(from, c.holder, amount)
}

// TransferOut pays amount from custody to the recipient.
func (c *Custody) TransferOut(to [20]byte, amount *uint256.Int) error {
	return c.token.Transfer(c.holder, to, amount)
}

// Approve sets the allowance a spender may pull from custody.
func (c *Custody) Approve(spender [20]byte, amount *uint256.Int) error {
	return c.token.Approve(c.holder, spender, amount)
}

// Balance returns the live custody holdings.
func (c *Custody) Balance() (*uint256.Int, error) {
	return c.token.BalanceOf(c.holder)
}
