package distributor

import (
	"errors"
	"time"

	"github.com/holiman/uint256"

	"reservevault/core/events"
	"reservevault/core/types"
	"reservevault/native/common"
)

// ModuleName identifies the distributor in event types.
const ModuleName = "distributor"

var (
	ErrNilState           = errors.New("distributor: state not configured")
	ErrAssetNotConfigured = errors.New("distributor: reward asset not configured")
	ErrUnauthorized       = errors.New("distributor: caller not permitted")
	ErrZeroRoot           = errors.New("distributor: root must be non-zero")
	ErrRootAlreadySet     = errors.New("distributor: epoch root already set")
	ErrRootNotSet         = errors.New("distributor: epoch root not set")
	ErrInvalidProof       = errors.New("distributor: invalid merkle proof")
	ErrAlreadyClaimed     = errors.New("distributor: already claimed at or above amount")
	ErrInvalidAmount      = errors.New("distributor: amount must be positive")
)

type engineState interface {
	DistributorRootGet(epoch uint64) ([32]byte, bool, error)
	DistributorRootPut(epoch uint64, root [32]byte) error
	DistributorClaimedGet(epoch uint64, claimant [20]byte) (*uint256.Int, error)
	DistributorClaimedPut(epoch uint64, claimant [20]byte, amount *uint256.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// Authorizer decides who may publish epoch roots.
type Authorizer interface {
	IsAdmin(id [20]byte) bool
}

// Asset pays out the reward asset.
type Asset interface {
	TransferOut(to [20]byte, amount *uint256.Int) error
}

// Engine registers immutable per-epoch roots and pays cumulative claims
// against them.
type Engine struct {
	state   engineState
	asset   Asset
	auth    Authorizer
	emitter events.Emitter
	guard   *common.ReentrancyGuard
	nowFn   func() int64
	pending []*types.Event
}

// NewEngine constructs a distributor with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		guard:   &common.ReentrancyGuard{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetAsset(asset Asset) { e.asset = asset }

func (e *Engine) SetAuthorizer(auth Authorizer) { e.auth = auth }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetReentrancyGuard shares a guard with the vault so a payout callback cannot
// re-enter either engine.
func (e *Engine) SetReentrancyGuard(guard *common.ReentrancyGuard) {
	if guard == nil {
		guard = &common.ReentrancyGuard{}
	}
	e.guard = guard
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if evt != nil {
		e.pending = append(e.pending, evt)
	}
}

func (e *Engine) execute(op func() error) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	snapshot := e.state.Snapshot()
	e.pending = nil
	if err := op(); err != nil {
		e.state.RevertToSnapshot(snapshot)
		e.pending = nil
		return err
	}
	pending := e.pending
	e.pending = nil
	for _, evt := range pending {
		e.emitter.Emit(events.Wrap(evt))
	}
	return nil
}

// SetRoot publishes the root for epoch. A root can be set exactly once.
func (e *Engine) SetRoot(caller [20]byte, epoch uint64, root [32]byte) error {
	return e.execute(func() error {
		if e.auth == nil || !e.auth.IsAdmin(caller) {
			return ErrUnauthorized
		}
		if root == ([32]byte{}) {
			return ErrZeroRoot
		}
		current, ok, err := e.state.DistributorRootGet(epoch)
		if err != nil {
			return err
		}
		if ok && current != ([32]byte{}) {
			return ErrRootAlreadySet
		}
		if err := e.state.DistributorRootPut(epoch, root); err != nil {
			return err
		}
		e.emit(RootSetEvent(epoch, root, e.nowFn()))
		return nil
	})
}

// Claim pays the increment between cumulative and what the claimant already
// received for epoch. It returns the amount paid.
func (e *Engine) Claim(claimant [20]byte, epoch uint64, cumulative *uint256.Int, proof [][32]byte) (*uint256.Int, error) {
	var paid *uint256.Int
	err := e.execute(func() error {
		if cumulative == nil || cumulative.IsZero() {
			return ErrInvalidAmount
		}
		if e.asset == nil {
			return ErrAssetNotConfigured
		}
		root, ok, err := e.state.DistributorRootGet(epoch)
		if err != nil {
			return err
		}
		if !ok || root == ([32]byte{}) {
			return ErrRootNotSet
		}
		if !VerifyProof(root, Leaf(claimant, cumulative), proof) {
			return ErrInvalidProof
		}
		claimed, err := e.state.DistributorClaimedGet(epoch, claimant)
		if err != nil {
			return err
		}
		if claimed == nil {
			claimed = new(uint256.Int)
		}
		if !claimed.Lt(cumulative) {
			return ErrAlreadyClaimed
		}
		delta := new(uint256.Int).Sub(cumulative, claimed)
		if err := e.state.DistributorClaimedPut(epoch, claimant, cumulative); err != nil {
			return err
		}
		if err := e.asset.TransferOut(claimant, delta); err != nil {
			return err
		}
		e.emit(ClaimedEvent(epoch, claimant, delta, cumulative))
		paid = delta
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// Root returns the root published for epoch.
func (e *Engine) Root(epoch uint64) ([32]byte, bool, error) {
	if e == nil || e.state == nil {
		return [32]byte{}, false, ErrNilState
	}
	return e.state.DistributorRootGet(epoch)
}

// Claimed returns the cumulative amount already paid to claimant for epoch.
func (e *Engine) Claimed(epoch uint64, claimant [20]byte) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	claimed, err := e.state.DistributorClaimedGet(epoch, claimant)
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		return new(uint256.Int), nil
	}
	return claimed, nil
}
