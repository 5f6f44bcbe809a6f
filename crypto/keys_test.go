package crypto

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIdentityAcceptsHexAndBech32(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	id := key.Identity()

	fromHex, err := ParseIdentity(HexIdentity(id))
	require.NoError(t, err)
	require.Equal(t, id, fromHex)

	rendered := FromIdentity(id).String()
	require.Contains(t, rendered, "rsv1")
	fromBech, err := ParseIdentity(rendered)
	require.NoError(t, err)
	require.Equal(t, id, fromBech)

	_, err = ParseIdentity("  ")
	require.Error(t, err)
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "signer.json")
	require.NoError(t, SaveToKeystore(path, key, "pass"))

	loaded, err := LoadFromKeystore(path, "pass")
	require.NoError(t, err)
	require.Equal(t, key.Identity(), loaded.Identity())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = LoadFromKeystore(path, "wrong")
	require.ErrorIs(t, err, ErrWrongPassphrase)
	require.ErrorIs(t, SaveToKeystore("", key, "pass"), ErrEmptyKeystorePath)
	require.ErrorIs(t, SaveToKeystore(path, nil, "pass"), ErrNilSignerKey)
	_, err = LoadFromKeystore(filepath.Join(t.TempDir(), "missing.json"), "pass")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrivateKeyFromHex(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	parsed, err := PrivateKeyFromHex("0x" + hex.EncodeToString(key.Bytes()))
	require.NoError(t, err)
	require.Equal(t, key.Identity(), parsed.Identity())
}
