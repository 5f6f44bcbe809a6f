package venue

import (
	"encoding/hex"
	"errors"

	"github.com/holiman/uint256"

	"reservevault/core/events"
	"reservevault/core/types"
	"reservevault/crypto"
)

// EventTypeBidPlaced is emitted when a purchase is recorded.
const EventTypeBidPlaced = "venue.bid.placed"

var (
	ErrNilState      = errors.New("venue: state not configured")
	ErrInvalidAmount = errors.New("venue: amount must be positive")
	ErrZeroAddress   = errors.New("venue: zero address")
)

// State persists cumulative bids per right and bidder.
type State interface {
	VenueBidGet(house [20]byte, rightID [32]byte, bidder [20]byte) (*uint256.Int, error)
	VenueBidPut(house [20]byte, rightID [32]byte, bidder [20]byte, amount *uint256.Int) error
}

// Puller moves approved funds from an owner, e.g. bank.Token.
type Puller interface {
	TransferFrom(spender, owner, to [20]byte, amount *uint256.Int) error
}

// AuctionHouse is an in-process venue. A purchase pulls exactly the requested
// amount from the payer using the allowance granted to the house and credits
// the bid to the identity it was placed for.
type AuctionHouse struct {
	address     [20]byte
	payer       [20]byte
	beneficiary [20]byte
	token       Puller
	state       State
	emitter     events.Emitter
}

// NewAuctionHouse deploys a house at address that pulls from payer and
// forwards proceeds to beneficiary.
func NewAuctionHouse(address, payer, beneficiary [20]byte, token Puller, state State) (*AuctionHouse, error) {
	var zero [20]byte
	if address == zero || payer == zero || beneficiary == zero {
		return nil, ErrZeroAddress
	}
	if state == nil || token == nil {
		return nil, ErrNilState
	}
	return &AuctionHouse{
		address:     address,
		payer:       payer,
		beneficiary: beneficiary,
		token:       token,
		state:       state,
		emitter:     events.NoopEmitter{},
	}, nil
}

// SetEmitter configures the event emitter used by the house.
func (h *AuctionHouse) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		h.emitter = events.NoopEmitter{}
		return
	}
	h.emitter = emitter
}

// Address returns the destination identity the house is deployed at.
func (h *AuctionHouse) Address() [20]byte { return h.address }

// Purchase records a bid of amount on rightID for identity.
func (h *AuctionHouse) Purchase(identity [20]byte, rightID [32]byte, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	if err := h.token.TransferFrom(h.address, h.payer, h.beneficiary, amount); err != nil {
		return err
	}
	bid, err := h.Bid(rightID, identity)
	if err != nil {
		return err
	}
	bid = new(uint256.Int).Add(bid, amount)
	if err := h.state.VenueBidPut(h.address, rightID, identity, bid); err != nil {
		return err
	}
	h.emitter.Emit(events.Wrap(&types.Event{
		Type: EventTypeBidPlaced,
		Attributes: map[string]string{
			"house":    crypto.FromIdentity(h.address).String(),
			"identity": crypto.FromIdentity(identity).String(),
			"rightId":  "0x" + hex.EncodeToString(rightID[:]),
			"amount":   amount.Dec(),
			"total":    bid.Dec(),
		},
	}))
	return nil
}

// Bid returns the cumulative bid identity placed on rightID.
func (h *AuctionHouse) Bid(rightID [32]byte, identity [20]byte) (*uint256.Int, error) {
	bid, err := h.state.VenueBidGet(h.address, rightID, identity)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return new(uint256.Int), nil
	}
	return bid, nil
}
