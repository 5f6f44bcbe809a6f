package vault_test

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"reservevault/core/events"
	"reservevault/core/state"
	"reservevault/native/bank"
	"reservevault/native/vault"
	"reservevault/storage"
)

const testChainID = 187001

type fixture struct {
	t       *testing.T
	manager *state.Manager
	engine  *vault.Engine
	token   *bank.Token
	custody *bank.Custody
	events  *events.Buffer
	now     int64

	vaultAddr [20]byte
	admin     [20]byte
	alice     [20]byte
	bob       [20]byte
	relayer   [20]byte
	treasury  [20]byte

	consumptionKey    *ecdsa.PrivateKey
	royaltyKey        *ecdsa.PrivateKey
	consumptionSigner [20]byte
	royaltySigner     [20]byte
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	out[19] = b
	return out
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	token, err := bank.NewToken("RSV", manager)
	require.NoError(t, err)

	f := &fixture{
		t:         t,
		manager:   manager,
		token:     token,
		events:    &events.Buffer{},
		now:       1_700_000_000,
		vaultAddr: addr(0xEE),
		admin:     addr(0x01),
		alice:     addr(0x0A),
		bob:       addr(0x0B),
		relayer:   addr(0x0C),
		treasury:  addr(0x0D),
	}
	f.custody = bank.NewCustody(token, f.vaultAddr)

	f.consumptionKey, err = ethcrypto.GenerateKey()
	require.NoError(t, err)
	f.royaltyKey, err = ethcrypto.GenerateKey()
	require.NoError(t, err)
	f.consumptionSigner = ethcrypto.PubkeyToAddress(f.consumptionKey.PublicKey)
	f.royaltySigner = ethcrypto.PubkeyToAddress(f.royaltyKey.PublicKey)

	engine := vault.NewEngine()
	engine.SetState(manager)
	engine.SetAsset(f.custody)
	engine.SetEmitter(f.events)
	engine.SetNowFunc(func() int64 { return f.now })
	engine.SetDomain(f.vaultAddr)
	engine.SetChainID(big.NewInt(testChainID))
	f.engine = engine

	require.NoError(t, engine.Bootstrap(f.admin))
	require.NoError(t, engine.SetRole(f.admin, vault.RoleConsumptionSigner, f.consumptionSigner, true))
	require.NoError(t, engine.SetRole(f.admin, vault.RoleRoyaltySigner, f.royaltySigner, true))
	require.NoError(t, engine.SetRole(f.admin, vault.RoleRelayer, f.relayer, true))

	require.NoError(t, token.Mint(f.alice, u(10_000)))
	require.NoError(t, token.Mint(f.bob, u(10_000)))
	f.events.Discard()
	return f
}

func (f *fixture) account(id [20]byte) *vault.AccountView {
	f.t.Helper()
	view, err := f.engine.Account(id)
	require.NoError(f.t, err)
	return view
}

func (f *fixture) totals() *vault.Totals {
	f.t.Helper()
	totals, err := f.engine.Totals()
	require.NoError(f.t, err)
	return totals
}

func (f *fixture) tokenBalance(id [20]byte) uint64 {
	f.t.Helper()
	bal, err := f.token.BalanceOf(id)
	require.NoError(f.t, err)
	return bal.Uint64()
}

func (f *fixture) setCap(limit uint64) {
	f.t.Helper()
	require.NoError(f.t, f.engine.SetDepositCap(f.admin, u(limit)))
}

func (f *fixture) consumption(subject [20]byte, cumulative uint64, deadline int64) (vault.ConsumptionSync, []byte) {
	f.t.Helper()
	msg := vault.ConsumptionSync{
		Subject:            subject,
		CumulativeConsumed: u(cumulative),
		WindowID:           u(42),
		Deadline:           u(uint64(deadline)),
	}
	digest, err := f.engine.ConsumptionDigest(msg)
	require.NoError(f.t, err)
	sig, err := vault.SignDigest(f.consumptionKey, digest)
	require.NoError(f.t, err)
	return msg, sig
}

func (f *fixture) royalty(subject [20]byte, cumulative uint64, deadline int64) (vault.RoyaltyAllocation, []byte) {
	f.t.Helper()
	msg := vault.RoyaltyAllocation{
		Subject:             subject,
		CumulativeAllocated: u(cumulative),
		WindowID:            u(7),
		Deadline:            u(uint64(deadline)),
	}
	digest, err := f.engine.RoyaltyDigest(msg)
	require.NoError(f.t, err)
	sig, err := vault.SignDigest(f.royaltyKey, digest)
	require.NoError(f.t, err)
	return msg, sig
}

func (f *fixture) syncConsumption(subject [20]byte, cumulative uint64) error {
	msg, sig := f.consumption(subject, cumulative, f.now+600)
	return f.engine.SyncConsumption(msg, sig)
}

func (f *fixture) claimRoyalty(subject [20]byte, cumulative uint64) error {
	msg, sig := f.royalty(subject, cumulative, f.now+600)
	return f.engine.ClaimRoyalty(msg, sig)
}

// requireInvariants checks the ledger and royalty budget invariants.
func (f *fixture) requireInvariants(ids ...[20]byte) {
	f.t.Helper()
	for _, id := range ids {
		view := f.account(id)
		require.False(f.t, view.ReservedConsumed.Gt(view.ReservedTotal), "consumed exceeds reserved")
	}
	totals := f.totals()
	require.False(f.t, totals.RoyaltyAllocated.Gt(totals.ConsumedForRoyalty), "royalty budget exceeded")
	require.False(f.t, totals.RoyaltyPaid.Gt(totals.RoyaltyAllocated), "royalty paid exceeds allocation")
}

func eventTypes(buf *events.Buffer) []string {
	drained := buf.Drain()
	out := make([]string, 0, len(drained))
	for _, evt := range drained {
		out = append(out, evt.EventType())
	}
	return out
}
