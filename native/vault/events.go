package vault

import (
	"strconv"

	"github.com/holiman/uint256"

	"reservevault/core/types"
	"reservevault/crypto"
)

const (
	// EventTypeDeposited is emitted when an account deposits the custody asset.
	EventTypeDeposited = "vault.deposited"
	// EventTypeWithdrawn is emitted when an account withdraws deposit and royalty funds.
	EventTypeWithdrawn = "vault.withdrawn"
	// EventTypeReserveIncreased is emitted when withdrawable funds move into reserve.
	EventTypeReserveIncreased = "vault.reserve.increased"
	// EventTypeReserveDecreased is emitted when reserve is released.
	EventTypeReserveDecreased = "vault.reserve.decreased"
	// EventTypeConsumptionSynced is emitted when a signed consumption update applies.
	EventTypeConsumptionSynced = "vault.consumption.synced"
	// EventTypeRoyaltyAllocated is emitted when a signed royalty allocation applies.
	EventTypeRoyaltyAllocated = "vault.royalty.allocated"
	// EventTypeExcessSwept is emitted when the administrator sweeps excess holdings.
	EventTypeExcessSwept = "vault.excess.swept"
	// EventTypeAuctionParticipated is emitted after a verified venue purchase.
	EventTypeAuctionParticipated = "vault.auction.participated"
	EventTypeRoleUpdated         = "vault.role.updated"
	EventTypeRightBound          = "vault.right.bound"
	EventTypeParamsUpdated       = "vault.params.updated"
	EventTypePauseToggled        = "vault.pause.toggled"
)

func identityString(id [20]byte) string {
	return crypto.FromIdentity(id).String()
}

func amountString(v *uint256.Int) string {
	return cloneInt(v).Dec()
}

// DepositedEvent returns the payload for a deposit.
func DepositedEvent(identity [20]byte, amount, balance, reservedTotal *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDeposited,
		Attributes: map[string]string{
			"identity":      identityString(identity),
			"amount":        amountString(amount),
			"balance":       amountString(balance),
			"reservedTotal": amountString(reservedTotal),
		},
	}
}

// WithdrawnEvent splits the withdrawn amount by source.
func WithdrawnEvent(identity [20]byte, fromRoyalty, fromDeposit *uint256.Int) *types.Event {
	total := new(uint256.Int).Add(cloneInt(fromRoyalty), cloneInt(fromDeposit))
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"identity":    identityString(identity),
			"amount":      total.Dec(),
			"fromRoyalty": amountString(fromRoyalty),
			"fromDeposit": amountString(fromDeposit),
		},
	}
}

// ReserveChangedEvent reports a reservation adjustment in either direction.
func ReserveChangedEvent(eventType string, identity [20]byte, amount, reservedTotal *uint256.Int) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"identity":      identityString(identity),
			"amount":        amountString(amount),
			"reservedTotal": amountString(reservedTotal),
		},
	}
}

// ConsumptionSyncedEvent carries the opaque window id so off-chain relayers can
// correlate the update. A zero delta marks a no-op replay.
func ConsumptionSyncedEvent(identity [20]byte, cumulative, delta, windowID *uint256.Int, signer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeConsumptionSynced,
		Attributes: map[string]string{
			"identity":   identityString(identity),
			"cumulative": amountString(cumulative),
			"delta":      amountString(delta),
			"windowId":   amountString(windowID),
			"signer":     identityString(signer),
		},
	}
}

// RoyaltyAllocatedEvent mirrors ConsumptionSyncedEvent for royalty allocations.
func RoyaltyAllocatedEvent(identity [20]byte, cumulative, delta, windowID *uint256.Int, signer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeRoyaltyAllocated,
		Attributes: map[string]string{
			"identity":   identityString(identity),
			"cumulative": amountString(cumulative),
			"delta":      amountString(delta),
			"windowId":   amountString(windowID),
			"signer":     identityString(signer),
		},
	}
}

func ExcessSweptEvent(treasury [20]byte, amount *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeExcessSwept,
		Attributes: map[string]string{
			"treasury": identityString(treasury),
			"amount":   amountString(amount),
		},
	}
}

func AuctionParticipatedEvent(identity [20]byte, rightID [32]byte, destination [20]byte, amount *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeAuctionParticipated,
		Attributes: map[string]string{
			"identity":    identityString(identity),
			"rightId":     encodeRightID(rightID),
			"destination": identityString(destination),
			"amount":      amountString(amount),
		},
	}
}

func RoleUpdatedEvent(role Role, member [20]byte, enabled bool) *types.Event {
	return &types.Event{
		Type: EventTypeRoleUpdated,
		Attributes: map[string]string{
			"role":    role.String(),
			"member":  identityString(member),
			"enabled": strconv.FormatBool(enabled),
		},
	}
}

func RightBoundEvent(rightID [32]byte, destination [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeRightBound,
		Attributes: map[string]string{
			"rightId":     encodeRightID(rightID),
			"destination": identityString(destination),
		},
	}
}

// ParamsUpdatedEvent reports a single administrator setting change.
func ParamsUpdatedEvent(field, value string) *types.Event {
	return &types.Event{
		Type: EventTypeParamsUpdated,
		Attributes: map[string]string{
			"field": field,
			"value": value,
		},
	}
}

func PauseToggledEvent(paused bool) *types.Event {
	return &types.Event{
		Type: EventTypePauseToggled,
		Attributes: map[string]string{
			"module": ModuleName,
			"paused": strconv.FormatBool(paused),
		},
	}
}
