package state

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"reservevault/native/vault"
	"reservevault/storage"
)

func TestManagerSnapshotRevert(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	var holder [20]byte
	holder[0] = 1

	require.NoError(t, m.SetTokenBalance("RSV", holder, uint256.NewInt(10)))
	snap := m.Snapshot()
	require.NoError(t, m.SetTokenBalance("RSV", holder, uint256.NewInt(20)))
	inner := m.Snapshot()
	require.NoError(t, m.SetTokenBalance("RSV", holder, uint256.NewInt(0)))

	m.RevertToSnapshot(inner)
	bal, err := m.TokenBalance("RSV", holder)
	require.NoError(t, err)
	require.Equal(t, uint64(20), bal.Uint64())

	m.RevertToSnapshot(snap)
	bal, err = m.TokenBalance("RSV", holder)
	require.NoError(t, err)
	require.Equal(t, uint64(10), bal.Uint64())
}

func TestManagerCommitFlushesAndDeletes(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	var holder [20]byte
	holder[19] = 7

	require.NoError(t, m.SetTokenBalance("RSV", holder, uint256.NewInt(5)))
	require.Equal(t, 1, m.Pending())
	require.NoError(t, m.Commit())
	require.Equal(t, 0, m.Pending())

	reopened := NewManager(db)
	bal, err := reopened.TokenBalance("RSV", holder)
	require.NoError(t, err)
	require.Equal(t, uint64(5), bal.Uint64())

	require.NoError(t, reopened.SetTokenBalance("RSV", holder, new(uint256.Int)))
	require.NoError(t, reopened.Commit())
	_, err = db.Get(kvKey(bankBalancePrefix, symbolPart("RSV"), holder[:]))
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestManagerDiscard(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	require.NoError(t, m.SetModulePaused(vault.ModuleName, true))
	require.True(t, m.IsPaused(vault.ModuleName))
	m.Discard()
	require.False(t, m.IsPaused(vault.ModuleName))
}

func TestVaultRecordsRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	var id [20]byte
	id[3] = 9

	_, ok, err := m.VaultAccountGet(id)
	require.NoError(t, err)
	require.False(t, ok)

	account := &vault.Account{
		Balance:                    uint256.NewInt(100),
		ReservedTotal:              uint256.NewInt(80),
		ReservedConsumed:           uint256.NewInt(30),
		LastUpdate:                 1_700_000_000,
		AccumulatedReservedSeconds: uint256.NewInt(12345),
	}
	require.NoError(t, m.VaultAccountPut(id, account))
	require.NoError(t, m.VaultRoleSet(vault.RoleRelayer, id, true))
	var right [32]byte
	right[0] = 0xaa
	require.NoError(t, m.VaultRightPut(right, id))
	require.NoError(t, m.Commit())

	fresh := NewManager(db)
	loaded, ok, err := fresh.VaultAccountGet(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, account, loaded)

	relayer, err := fresh.VaultRoleHas(vault.RoleRelayer, id)
	require.NoError(t, err)
	require.True(t, relayer)
	signer, err := fresh.VaultRoleHas(vault.RoleConsumptionSigner, id)
	require.NoError(t, err)
	require.False(t, signer)

	dest, bound, err := fresh.VaultRightGet(right)
	require.NoError(t, err)
	require.True(t, bound)
	require.Equal(t, id, dest)

	totals, err := fresh.VaultTotalsGet()
	require.NoError(t, err)
	require.True(t, totals.Deposits.IsZero())
}

func TestEnsureStateVersion(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	require.NoError(t, m.EnsureStateVersion())
	version, err := NewManager(db).StoredStateVersion()
	require.NoError(t, err)
	require.Equal(t, StateVersion, version)

	require.NoError(t, m.SetStateVersion(StateVersion+1))
	require.NoError(t, m.Commit())
	require.ErrorIs(t, NewManager(db).EnsureStateVersion(), ErrStateVersionMismatch)
}
