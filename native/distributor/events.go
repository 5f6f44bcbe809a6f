package distributor

import (
	"encoding/hex"
	"strconv"

	"github.com/holiman/uint256"

	"reservevault/core/types"
	"reservevault/crypto"
)

const (
	// EventTypeRootSet is emitted when an epoch root is published.
	EventTypeRootSet = "distributor.root.set"
	// EventTypeClaimed is emitted when a claimant receives an increment.
	EventTypeClaimed = "distributor.claimed"
)

func RootSetEvent(epoch uint64, root [32]byte, at int64) *types.Event {
	return &types.Event{
		Type: EventTypeRootSet,
		Attributes: map[string]string{
			"epoch":       strconv.FormatUint(epoch, 10),
			"root":        "0x" + hex.EncodeToString(root[:]),
			"publishedAt": strconv.FormatInt(at, 10),
		},
	}
}

func ClaimedEvent(epoch uint64, claimant [20]byte, amount, cumulative *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeClaimed,
		Attributes: map[string]string{
			"epoch":      strconv.FormatUint(epoch, 10),
			"identity":   crypto.FromIdentity(claimant).String(),
			"amount":     amount.Dec(),
			"cumulative": cumulative.Dec(),
		},
	}
}
