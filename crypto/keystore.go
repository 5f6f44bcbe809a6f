package crypto

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

var (
	ErrEmptyKeystorePath = errors.New("crypto: empty keystore path")
	ErrNilSignerKey      = errors.New("crypto: nil signer key")
	ErrWrongPassphrase   = errors.New("crypto: keystore passphrase does not match")
)

// SaveToKeystore encrypts a signer key into a v3 keystore file at path. The
// file is written next to its destination and renamed into place with 0600
// permissions so a failed write never leaves a truncated key behind.
func SaveToKeystore(path string, key *PrivateKey, passphrase string) error {
	if key == nil || key.PrivateKey == nil {
		return ErrNilSignerKey
	}
	if path == "" {
		return ErrEmptyKeystorePath
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("crypto: keystore id: %w", err)
	}
	signer := ethcrypto.PubkeyToAddress(key.PublicKey)
	encrypted, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    signer,
		PrivateKey: key.PrivateKey,
	}, passphrase, keystore.StandardScryptN, keystore.StandardScryptP)
	if err != nil {
		return fmt.Errorf("crypto: encrypt signer %s: %w", FromIdentity(signer), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("crypto: keystore dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return fmt.Errorf("crypto: keystore temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(encrypted); err != nil {
		tmp.Close()
		return fmt.Errorf("crypto: write keystore: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("crypto: keystore permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("crypto: write keystore: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("crypto: install keystore %s: %w", path, err)
	}
	return nil
}

// LoadFromKeystore decrypts the signer key stored at path.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	if path == "" {
		return nil, ErrEmptyKeystorePath
	}
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("crypto: read keystore: %w", err)
	}
	decrypted, err := keystore.DecryptKey(keyJSON, passphrase)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, fmt.Errorf("%w: %s", ErrWrongPassphrase, path)
	}
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt keystore %s: %w", path, err)
	}
	return &PrivateKey{PrivateKey: decrypted.PrivateKey}, nil
}
