package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"reservevault/config"
	"reservevault/storage"
)

func TestResolveBootstrapPath(t *testing.T) {
	t.Setenv("VAULT_BOOTSTRAP", "/env/bootstrap.yaml")
	require.Equal(t, "/flag.yaml", resolveBootstrapPath(" /flag.yaml ", "/config.yaml"))
	require.Equal(t, "/env/bootstrap.yaml", resolveBootstrapPath("", "/config.yaml"))

	t.Setenv("VAULT_BOOTSTRAP", "")
	require.Equal(t, "/config.yaml", resolveBootstrapPath("", "/config.yaml"))
	require.Empty(t, resolveBootstrapPath("", ""))
}

func TestOpenStorageBackends(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	cfg.Storage = config.StorageMemory
	db, err := openStorage(cfg)
	require.NoError(t, err)
	require.IsType(t, &storage.MemDB{}, db)

	for _, backend := range []string{config.StorageBolt, config.StorageLevelDB} {
		cfg.Storage = backend
		db, err := openStorage(cfg)
		require.NoError(t, err, backend)
		require.NoError(t, db.Put([]byte("k"), []byte("v")))
		value, err := db.Get([]byte("k"))
		require.NoError(t, err)
		require.Equal(t, []byte("v"), value)
		require.NoError(t, db.Close())
	}
}
