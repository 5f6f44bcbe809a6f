package core

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"reservevault/config"
	"reservevault/core/events"
	"reservevault/crypto"
	"reservevault/native/distributor"
	"reservevault/native/vault"
	"reservevault/observability/metrics"
	"reservevault/services/audit"
	"reservevault/storage"
)

var (
	testNow      = time.Unix(1_700_000_000, 0)
	vaultAddr    = id(0xEE)
	poolAddr     = id(0xDD)
	adminAddr    = id(0x01)
	aliceAddr    = id(0x0A)
	bobAddr      = id(0x0B)
	relayerAddr  = id(0x0C)
	treasuryAddr = id(0x0D)
	houseAddr    = id(0xA0)
	sellerAddr   = id(0xB0)
	testRight    = [32]byte{0x52, 0x49, 0x47, 0x48, 0x54}
)

func id(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	out[19] = b
	return out
}

func hexID(v [20]byte) string { return crypto.HexIdentity(v) }

type harness struct {
	svc         *Service
	journal     *audit.Journal
	consumption *ecdsa.PrivateKey
	royalty     *ecdsa.PrivateKey
}

func newService(t *testing.T, db storage.Database, journal Journal) *Service {
	t.Helper()
	svc, err := NewService(db, Options{
		ChainID:            big.NewInt(187001),
		VaultAddress:       vaultAddr,
		DistributorAddress: poolAddr,
		DepositAsset:       "rsv",
		RewardAsset:        "RWD",
		Journal:            journal,
		Metrics:            metrics.NewVaultMetrics(prometheus.NewRegistry()),
		Now:                func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return svc
}

func manifest(consumption, royalty [20]byte) *config.Bootstrap {
	return &config.Bootstrap{
		Admin:      hexID(adminAddr),
		Treasury:   hexID(treasuryAddr),
		DepositCap: "5000",
		Roles: config.BootstrapRoles{
			Relayers:           []string{hexID(relayerAddr)},
			Destinations:       []string{hexID(houseAddr)},
			ConsumptionSigners: []string{hexID(consumption)},
			RoyaltySigners:     []string{hexID(royalty), hexID(royalty)},
		},
		Rights: []config.RightBinding{{
			RightID:     fmt.Sprintf("0x%x", testRight),
			Destination: hexID(houseAddr),
		}},
		Venues: []config.VenueSpec{{Address: hexID(houseAddr), Beneficiary: hexID(sellerAddr)}},
		Mints: []config.Mint{
			{Asset: "RSV", To: hexID(aliceAddr), Amount: "1000"},
			{Asset: "RWD", To: hexID(poolAddr), Amount: "500"},
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	journal, err := audit.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	h := &harness{journal: journal}
	h.consumption, err = ethcrypto.GenerateKey()
	require.NoError(t, err)
	h.royalty, err = ethcrypto.GenerateKey()
	require.NoError(t, err)
	h.svc = newService(t, storage.NewMemDB(), journal)

	m := manifest(ethcrypto.PubkeyToAddress(h.consumption.PublicKey), ethcrypto.PubkeyToAddress(h.royalty.PublicKey))
	require.NoError(t, h.svc.RegisterVenues(m))
	applied, err := h.svc.ApplyBootstrap(context.Background(), m)
	require.NoError(t, err)
	require.True(t, applied)
	return h
}

func (h *harness) exec(t *testing.T, name string, fn func(*vault.Engine) error) error {
	t.Helper()
	return h.svc.Execute(context.Background(), name, func() error { return fn(h.svc.Vault()) })
}

func (h *harness) signConsumption(t *testing.T, subject [20]byte, cumulative uint64) (vault.ConsumptionSync, []byte) {
	t.Helper()
	msg := vault.ConsumptionSync{
		Subject:            subject,
		CumulativeConsumed: uint256.NewInt(cumulative),
		WindowID:           uint256.NewInt(9),
		Deadline:           uint256.NewInt(uint64(testNow.Unix() + 60)),
	}
	digest, err := h.svc.Vault().ConsumptionDigest(msg)
	require.NoError(t, err)
	sig, err := vault.SignDigest(h.consumption, digest)
	require.NoError(t, err)
	return msg, sig
}

func (h *harness) signRoyalty(t *testing.T, subject [20]byte, cumulative uint64) (vault.RoyaltyAllocation, []byte) {
	t.Helper()
	msg := vault.RoyaltyAllocation{
		Subject:             subject,
		CumulativeAllocated: uint256.NewInt(cumulative),
		WindowID:            uint256.NewInt(9),
		Deadline:            uint256.NewInt(uint64(testNow.Unix() + 60)),
	}
	digest, err := h.svc.Vault().RoyaltyDigest(msg)
	require.NoError(t, err)
	sig, err := vault.SignDigest(h.royalty, digest)
	require.NoError(t, err)
	return msg, sig
}

func TestServiceEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.exec(t, "deposit", func(v *vault.Engine) error { return v.Deposit(aliceAddr, uint256.NewInt(600)) }))
	require.NoError(t, h.exec(t, "increase-reserved", func(v *vault.Engine) error {
		return v.IncreaseReserved(aliceAddr, uint256.NewInt(400))
	}))
	msg, sig := h.signConsumption(t, aliceAddr, 50)
	require.NoError(t, h.exec(t, "sync-consumption", func(v *vault.Engine) error { return v.SyncConsumption(msg, sig) }))
	rmsg, rsig := h.signRoyalty(t, bobAddr, 50)
	require.NoError(t, h.exec(t, "claim-royalty", func(v *vault.Engine) error { return v.ClaimRoyalty(rmsg, rsig) }))
	require.NoError(t, h.exec(t, "withdraw", func(v *vault.Engine) error { return v.Withdraw(bobAddr, uint256.NewInt(50)) }))
	require.NoError(t, h.exec(t, "participate", func(v *vault.Engine) error {
		return v.Participate(relayerAddr, aliceAddr, uint256.NewInt(100), testRight)
	}))

	house, ok := h.svc.AuctionHouse(houseAddr)
	require.True(t, ok)
	require.NoError(t, h.svc.View(func() error {
		bid, err := house.Bid(testRight, aliceAddr)
		require.NoError(t, err)
		require.Equal(t, uint64(100), bid.Uint64())
		view, err := h.svc.Vault().Account(aliceAddr)
		require.NoError(t, err)
		require.Equal(t, uint64(450), view.Balance.Uint64())
		require.Equal(t, uint64(150), view.ReservedConsumed.Uint64())
		return nil
	}))

	records, err := h.journal.List(ctx, audit.Filter{})
	require.NoError(t, err)
	types := make([]string, 0, len(records))
	for _, rec := range records {
		types = append(types, rec.Type)
	}
	require.Contains(t, types, vault.EventTypeConsumptionSynced)
	require.Contains(t, types, vault.EventTypeAuctionParticipated)
	require.Contains(t, types, "venue.bid.placed")
	synced, err := h.journal.List(ctx, audit.Filter{Type: vault.EventTypeConsumptionSynced})
	require.NoError(t, err)
	require.Equal(t, "9", synced[0].WindowID)
	bids, err := h.journal.List(ctx, audit.Filter{Type: "venue.bid.placed", Subject: crypto.FromIdentity(aliceAddr).String()})
	require.NoError(t, err)
	require.Len(t, bids, 1)
}

func TestServiceDistributorClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	entries := []distributor.Entry{
		{Identity: aliceAddr, Cumulative: uint256.NewInt(120)},
		{Identity: bobAddr, Cumulative: uint256.NewInt(80)},
	}
	tree, err := distributor.BuildTree(entries)
	require.NoError(t, err)

	err = h.svc.Execute(ctx, "set-root", func() error {
		return h.svc.Distributor().SetRoot(aliceAddr, 1, tree.Root())
	})
	require.ErrorIs(t, err, distributor.ErrUnauthorized)
	require.NoError(t, h.svc.Execute(ctx, "set-root", func() error {
		return h.svc.Distributor().SetRoot(adminAddr, 1, tree.Root())
	}))

	proof, ok := tree.Proof(aliceAddr, uint256.NewInt(120))
	require.True(t, ok)
	require.NoError(t, h.svc.Execute(ctx, "claim", func() error {
		_, err := h.svc.Distributor().Claim(aliceAddr, 1, uint256.NewInt(120), proof)
		return err
	}))
	rwd, err := h.svc.Token("rwd")
	require.NoError(t, err)
	bal, err := rwd.BalanceOf(aliceAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(120), bal.Uint64())

	// Pausing the vault leaves reward claims open.
	require.NoError(t, h.exec(t, "pause", func(v *vault.Engine) error { return v.Pause(adminAddr) }))
	proof, _ = tree.Proof(bobAddr, uint256.NewInt(80))
	require.NoError(t, h.svc.Execute(ctx, "claim", func() error {
		_, err := h.svc.Distributor().Claim(bobAddr, 1, uint256.NewInt(80), proof)
		return err
	}))
}

func TestExecuteRevertsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before, err := h.journal.List(ctx, audit.Filter{})
	require.NoError(t, err)

	var seen []events.Event
	h.svc.AddEmitter(emitterFunc(func(evt events.Event) { seen = append(seen, evt) }))

	boom := errors.New("later step failed")
	err = h.svc.Execute(ctx, "batch", func() error {
		if err := h.svc.Vault().Deposit(aliceAddr, uint256.NewInt(100)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Empty(t, seen)

	require.NoError(t, h.svc.View(func() error {
		view, err := h.svc.Vault().Account(aliceAddr)
		require.NoError(t, err)
		require.False(t, view.Exists)
		return nil
	}))
	after, err := h.journal.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, after, len(before))

	require.NoError(t, h.exec(t, "deposit", func(v *vault.Engine) error { return v.Deposit(aliceAddr, uint256.NewInt(100)) }))
	require.Len(t, seen, 1)
	require.Equal(t, vault.EventTypeDeposited, seen[0].EventType())
}

type emitterFunc func(events.Event)

func (f emitterFunc) Emit(evt events.Event) { f(evt) }

type failingJournal struct{}

func (failingJournal) Record(context.Context, string, time.Time, []events.Event, func() error) error {
	return errors.New("journal unavailable")
}

func TestJournalFailureDiscardsState(t *testing.T) {
	db := storage.NewMemDB()
	svc := newService(t, db, failingJournal{})
	err := svc.Execute(context.Background(), "bootstrap", func() error {
		return svc.Vault().Bootstrap(adminAddr)
	})
	require.ErrorContains(t, err, "journal unavailable")
	require.False(t, svc.Vault().IsAdmin(adminAddr))
}

func TestApplyBootstrapOnlyOnce(t *testing.T) {
	h := newHarness(t)
	applied, err := h.svc.ApplyBootstrap(context.Background(), &config.Bootstrap{Admin: hexID(bobAddr)})
	require.NoError(t, err)
	require.False(t, applied)
	require.True(t, h.svc.Vault().IsAdmin(adminAddr))

	_, err = h.svc.RegisterAuctionHouse(houseAddr, sellerAddr)
	require.ErrorIs(t, err, ErrVenueExists)
}

func TestApplyBootstrapRejectsBadManifest(t *testing.T) {
	svc := newService(t, storage.NewMemDB(), nil)
	bad := manifest(id(1), id(2))
	bad.Epochs = []config.EpochRoot{{Epoch: 1, Root: "0x1234"}}
	_, err := svc.ApplyBootstrap(context.Background(), bad)
	require.ErrorContains(t, err, "epoch 1")
	require.False(t, svc.Vault().IsAdmin(adminAddr))

	bad = manifest(id(1), id(2))
	bad.Mints = []config.Mint{{Asset: "XYZ", To: hexID(aliceAddr), Amount: "1"}}
	_, err = svc.ApplyBootstrap(context.Background(), bad)
	require.ErrorIs(t, err, ErrUnknownAsset)
	require.False(t, svc.Vault().IsAdmin(adminAddr))
}

func TestServicePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")
	db, err := storage.NewLevelDB(path)
	require.NoError(t, err)
	svc := newService(t, db, nil)
	_, err = svc.ApplyBootstrap(context.Background(), manifest(id(1), id(2)))
	require.NoError(t, err)
	require.NoError(t, svc.Execute(context.Background(), "deposit", func() error {
		return svc.Vault().Deposit(aliceAddr, uint256.NewInt(250))
	}))
	require.NoError(t, svc.Close())

	db, err = storage.NewLevelDB(path)
	require.NoError(t, err)
	reopened := newService(t, db, nil)
	defer reopened.Close()
	require.True(t, reopened.Vault().IsAdmin(adminAddr))
	view, err := reopened.Vault().Account(aliceAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(250), view.Balance.Uint64())
	custody, err := reopened.DepositCustody().Balance()
	require.NoError(t, err)
	require.Equal(t, uint64(250), custody.Uint64())
}

func TestParseHash(t *testing.T) {
	_, err := ParseHash("0x12")
	require.Error(t, err)
	_, err = ParseHash("12")
	require.Error(t, err)
	h, err := ParseHash(fmt.Sprintf("0x%x", testRight))
	require.NoError(t, err)
	require.Equal(t, testRight, h)
}

func TestTransferRejectsCustodySender(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.exec(t, "deposit", func(v *vault.Engine) error { return v.Deposit(aliceAddr, uint256.NewInt(100)) }))

	require.ErrorIs(t, h.svc.Transfer(ctx, "RSV", vaultAddr, bobAddr, uint256.NewInt(1)), ErrCustodySpender)
	require.ErrorIs(t, h.svc.Transfer(ctx, "rwd", poolAddr, bobAddr, uint256.NewInt(1)), ErrCustodySpender)
	require.NoError(t, h.svc.Transfer(ctx, "RSV", aliceAddr, vaultAddr, uint256.NewInt(5)))

	require.NoError(t, h.svc.View(func() error {
		holdings, err := h.svc.DepositCustody().Balance()
		require.NoError(t, err)
		require.Equal(t, uint64(105), holdings.Uint64())
		return nil
	}))
}
