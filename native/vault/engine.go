package vault

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"reservevault/core/events"
	"reservevault/core/types"
	"reservevault/native/common"
)

type engineState interface {
	VaultAccountGet(id [20]byte) (*Account, bool, error)
	VaultAccountPut(id [20]byte, account *Account) error
	VaultTotalsGet() (*Totals, error)
	VaultTotalsPut(totals *Totals) error
	VaultRoyaltyGet(id [20]byte) (*RoyaltyAccount, error)
	VaultRoyaltyPut(id [20]byte, account *RoyaltyAccount) error
	VaultParamsGet() (*Params, error)
	VaultParamsPut(params *Params) error
	VaultRoleHas(role Role, member [20]byte) (bool, error)
	VaultRoleSet(role Role, member [20]byte, enabled bool) error
	VaultRightGet(rightID [32]byte) ([20]byte, bool, error)
	VaultRightPut(rightID [32]byte, destination [20]byte) error
	IsPaused(module string) bool
	SetModulePaused(module string, paused bool) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// Asset is the custody position the vault holds in the deposited asset. Any
// failed transfer aborts the enclosing operation.
type Asset interface {
	TransferIn(from [20]byte, amount *uint256.Int) error
	TransferOut(to [20]byte, amount *uint256.Int) error
	Approve(spender [20]byte, amount *uint256.Int) error
	Balance() (*uint256.Int, error)
	Holder() [20]byte
}

// Venue is an external marketplace that pulls the approved amount from the
// vault when a purchase is placed.
type Venue interface {
	Purchase(identity [20]byte, rightID [32]byte, amount *uint256.Int) error
}

// VenueResolver returns the venue deployed at an approved destination.
type VenueResolver interface {
	Venue(destination [20]byte) (Venue, bool)
}

// VenueMap is a static VenueResolver.
type VenueMap map[[20]byte]Venue

// Venue implements VenueResolver.
func (m VenueMap) Venue(destination [20]byte) (Venue, bool) {
	venue, ok := m[destination]
	return venue, ok && venue != nil
}

// Engine implements the reserve ledger, signed update application, royalty
// budget and auction participation.
type Engine struct {
	state     engineState
	asset     Asset
	venues    VenueResolver
	emitter   events.Emitter
	nowFn     func() int64
	guard     *common.ReentrancyGuard
	domain    *Domain
	chainIDFn func() *big.Int
	pending   []*types.Event
}

// NewEngine constructs a vault engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
		guard:  &common.ReentrancyGuard{},
		venues: VenueMap{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAsset configures the custody position in the deposited asset.
func (e *Engine) SetAsset(asset Asset) { e.asset = asset }

// SetVenues configures how approved destinations resolve to venues.
func (e *Engine) SetVenues(resolver VenueResolver) {
	if resolver == nil {
		e.venues = VenueMap{}
		return
	}
	e.venues = resolver
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetReentrancyGuard shares a guard between engines that must not interleave.
func (e *Engine) SetReentrancyGuard(guard *common.ReentrancyGuard) {
	if guard == nil {
		guard = &common.ReentrancyGuard{}
	}
	e.guard = guard
}

// SetDomain binds signed messages to the vault's contract identity.
func (e *Engine) SetDomain(contract [20]byte) { e.domain = NewDomain(contract) }

// SetChainID fixes the network id mixed into the signing domain.
func (e *Engine) SetChainID(chainID *big.Int) {
	if chainID == nil {
		e.chainIDFn = nil
		return
	}
	fixed := new(big.Int).Set(chainID)
	e.chainIDFn = func() *big.Int { return fixed }
}

// SetChainIDFunc installs a live network id source. The domain separator is
// recomputed whenever the reported id differs from the cached one.
func (e *Engine) SetChainIDFunc(fn func() *big.Int) { e.chainIDFn = fn }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil {
		return
	}
	e.pending = append(e.pending, evt)
}

func (e *Engine) nowUnix() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	now := e.nowFn()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

func (e *Engine) chainID() (*big.Int, error) {
	if e.domain == nil || e.chainIDFn == nil {
		return nil, ErrDomainNotConfigured
	}
	id := e.chainIDFn()
	if id == nil || id.Sign() <= 0 {
		return nil, ErrDomainNotConfigured
	}
	return id, nil
}

// execute runs op as one atomic step: the reentrancy guard is held, state is
// reverted to the entry snapshot on error and events are released only on
// success.
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

func (e *Engine) requireAsset() error {
	if e.asset == nil {
		return ErrAssetNotConfigured
	}
	return nil
}

// requireHolder rejects the custody address itself. Transfers from custody to
// custody move nothing, so it can never back a ledger position.
func (e *Engine) requireHolder(identity [20]byte) error {
	if e.asset != nil && identity == e.asset.Holder() {
		return ErrCustodyIdentity
	}
	return nil
}

func (e *Engine) loadAccount(id [20]byte) (*Account, bool, error) {
	account, ok, err := e.state.VaultAccountGet(id)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return NewAccount(), false, nil
	}
	return account.normalize(), true, nil
}

func (e *Engine) loadTotals() (*Totals, error) {
	totals, err := e.state.VaultTotalsGet()
	if err != nil {
		return nil, err
	}
	if totals == nil {
		return NewTotals(), nil
	}
	return totals.Clone(), nil
}

func (e *Engine) loadRoyalty(id [20]byte) (*RoyaltyAccount, error) {
	account, err := e.state.VaultRoyaltyGet(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &RoyaltyAccount{ClaimableBuffer: new(uint256.Int), CumulativeAllocated: new(uint256.Int)}, nil
	}
	return account.Clone(), nil
}

func (e *Engine) loadParams() (*Params, error) {
	params, err := e.state.VaultParamsGet()
	if err != nil {
		return nil, err
	}
	if params == nil {
		return &Params{DepositCap: new(uint256.Int)}, nil
	}
	return params.Clone(), nil
}

func (e *Engine) hasRole(role Role, member [20]byte) (bool, error) {
	if !role.Valid() {
		return false, ErrInvalidRole
	}
	return e.state.VaultRoleHas(role, member)
}

func encodeRightID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseRightID decodes a 0x-prefixed 32 byte right identifier.
func ParseRightID(raw string) ([32]byte, error) {
	var id [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("vault: decode right id: %w", err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("vault: right id must be 32 bytes, got %d", len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}
