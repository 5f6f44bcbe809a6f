package distributor_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"reservevault/core/events"
	"reservevault/core/state"
	"reservevault/native/bank"
	"reservevault/native/common"
	"reservevault/native/distributor"
	"reservevault/storage"
)

type staticAdmin [20]byte

func (a staticAdmin) IsAdmin(id [20]byte) bool { return id == [20]byte(a) }

type harness struct {
	engine  *distributor.Engine
	token   *bank.Token
	pool    [20]byte
	admin   [20]byte
	events  *events.Buffer
	entries []distributor.Entry
	tree    *distributor.Tree
}

func id(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	token, err := bank.NewToken("RWD", manager)
	require.NoError(t, err)
	h := &harness{
		token:  token,
		pool:   id(0xDD),
		admin:  id(0x01),
		events: &events.Buffer{},
		entries: []distributor.Entry{
			{Identity: id(0x0A), Cumulative: uint256.NewInt(100)},
			{Identity: id(0x0B), Cumulative: uint256.NewInt(250)},
			{Identity: id(0x0C), Cumulative: uint256.NewInt(5)},
		},
	}
	require.NoError(t, token.Mint(h.pool, uint256.NewInt(1_000)))
	h.tree, err = distributor.BuildTree(h.entries)
	require.NoError(t, err)

	h.engine = distributor.NewEngine()
	h.engine.SetState(manager)
	h.engine.SetAsset(bank.NewCustody(token, h.pool))
	h.engine.SetAuthorizer(staticAdmin(h.admin))
	h.engine.SetEmitter(h.events)
	return h
}

func (h *harness) proof(t *testing.T, entry distributor.Entry) [][32]byte {
	t.Helper()
	proof, ok := h.tree.Proof(entry.Identity, entry.Cumulative)
	require.True(t, ok)
	return proof
}

func TestSetRootOnce(t *testing.T) {
	h := newHarness(t)
	root := h.tree.Root()

	require.ErrorIs(t, h.engine.SetRoot(id(0x0A), 1, root), distributor.ErrUnauthorized)
	require.ErrorIs(t, h.engine.SetRoot(h.admin, 1, [32]byte{}), distributor.ErrZeroRoot)
	require.NoError(t, h.engine.SetRoot(h.admin, 1, root))
	require.ErrorIs(t, h.engine.SetRoot(h.admin, 1, root), distributor.ErrRootAlreadySet)
	require.ErrorIs(t, h.engine.SetRoot(h.admin, 1, [32]byte{1}), distributor.ErrRootAlreadySet)

	stored, ok, err := h.engine.Root(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, root, stored)

	require.NoError(t, h.engine.SetRoot(h.admin, 2, [32]byte{1}))
}

func TestClaimPaysIncrement(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.SetRoot(h.admin, 7, h.tree.Root()))
	entry := h.entries[1]

	paid, err := h.engine.Claim(entry.Identity, 7, entry.Cumulative, h.proof(t, entry))
	require.NoError(t, err)
	require.Equal(t, uint64(250), paid.Uint64())

	_, err = h.engine.Claim(entry.Identity, 7, entry.Cumulative, h.proof(t, entry))
	require.ErrorIs(t, err, distributor.ErrAlreadyClaimed)

	bal, err := h.token.BalanceOf(entry.Identity)
	require.NoError(t, err)
	require.Equal(t, uint64(250), bal.Uint64())
	claimed, err := h.engine.Claimed(7, entry.Identity)
	require.NoError(t, err)
	require.Equal(t, uint64(250), claimed.Uint64())
}

func TestClaimStagedAcrossEpochRoots(t *testing.T) {
	h := newHarness(t)
	claimant := id(0x0A)
	first, err := distributor.BuildTree([]distributor.Entry{{Identity: claimant, Cumulative: uint256.NewInt(40)}, {Identity: id(2), Cumulative: uint256.NewInt(1)}})
	require.NoError(t, err)
	require.NoError(t, h.engine.SetRoot(h.admin, 1, first.Root()))
	proof, ok := first.Proof(claimant, uint256.NewInt(40))
	require.True(t, ok)
	paid, err := h.engine.Claim(claimant, 1, uint256.NewInt(40), proof)
	require.NoError(t, err)
	require.Equal(t, uint64(40), paid.Uint64())

	// Claimed amounts are tracked per epoch.
	lower, err := distributor.BuildTree([]distributor.Entry{{Identity: claimant, Cumulative: uint256.NewInt(30)}})
	require.NoError(t, err)
	require.NoError(t, h.engine.SetRoot(h.admin, 2, lower.Root()))
	proof, ok = lower.Proof(claimant, uint256.NewInt(30))
	require.True(t, ok)
	paid, err = h.engine.Claim(claimant, 2, uint256.NewInt(30), proof)
	require.NoError(t, err)
	require.Equal(t, uint64(30), paid.Uint64())
}

func TestClaimRejectsBadProofs(t *testing.T) {
	h := newHarness(t)
	entry := h.entries[0]
	_, err := h.engine.Claim(entry.Identity, 3, entry.Cumulative, h.proof(t, entry))
	require.ErrorIs(t, err, distributor.ErrRootNotSet)

	require.NoError(t, h.engine.SetRoot(h.admin, 3, h.tree.Root()))
	_, err = h.engine.Claim(entry.Identity, 3, uint256.NewInt(101), h.proof(t, entry))
	require.ErrorIs(t, err, distributor.ErrInvalidProof)
	_, err = h.engine.Claim(id(0x0B), 3, entry.Cumulative, h.proof(t, entry))
	require.ErrorIs(t, err, distributor.ErrInvalidProof)
	_, err = h.engine.Claim(entry.Identity, 3, uint256.NewInt(0), nil)
	require.ErrorIs(t, err, distributor.ErrInvalidAmount)

	claimed, err := h.engine.Claimed(3, entry.Identity)
	require.NoError(t, err)
	require.True(t, claimed.IsZero())
	require.Len(t, h.events.Drain(), 1)
}

func TestClaimRevertsWhenPoolEmpty(t *testing.T) {
	h := newHarness(t)
	big := distributor.Entry{Identity: id(0x0F), Cumulative: uint256.NewInt(5_000)}
	tree, err := distributor.BuildTree([]distributor.Entry{big})
	require.NoError(t, err)
	require.NoError(t, h.engine.SetRoot(h.admin, 1, tree.Root()))

	_, err = h.engine.Claim(big.Identity, 1, big.Cumulative, nil)
	require.ErrorIs(t, err, bank.ErrInsufficientBalance)
	claimed, err := h.engine.Claimed(1, big.Identity)
	require.NoError(t, err)
	require.True(t, claimed.IsZero())
}

func TestSharedReentrancyGuard(t *testing.T) {
	h := newHarness(t)
	guard := &common.ReentrancyGuard{}
	h.engine.SetReentrancyGuard(guard)
	require.NoError(t, guard.Enter())
	require.ErrorIs(t, h.engine.SetRoot(h.admin, 1, h.tree.Root()), common.ErrReentrant)
	guard.Exit()
	require.NoError(t, h.engine.SetRoot(h.admin, 1, h.tree.Root()))
}
