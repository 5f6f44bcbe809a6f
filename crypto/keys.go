package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable part used when rendering identities.
type AddressPrefix string

const (
	// VaultPrefix is used for account holders, signers, relayers and venues.
	VaultPrefix AddressPrefix = "rsv"
)

// Address represents a 20-byte ledger identity with a display prefix.
type Address struct {
	prefix AddressPrefix
	bytes  [20]byte
}

func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("crypto: address must be 20 bytes long, got %d", len(b))
	}
	var out Address
	out.prefix = prefix
	copy(out.bytes[:], b)
	return out, nil
}

// FromIdentity wraps a raw identity with the vault prefix.
func FromIdentity(id [20]byte) Address {
	return Address{prefix: VaultPrefix, bytes: id}
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		return "0x" + hex.EncodeToString(a.bytes[:])
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		return "0x" + hex.EncodeToString(a.bytes[:])
	}
	return encoded
}

// Identity returns the raw 20-byte identity.
func (a Address) Identity() [20]byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: convert bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// ParseIdentity accepts either a 0x-prefixed hex address or a bech32 address.
func ParseIdentity(raw string) ([20]byte, error) {
	var id [20]byte
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return id, errors.New("crypto: identity required")
	}
	if common.IsHexAddress(trimmed) {
		return common.HexToAddress(trimmed), nil
	}
	addr, err := DecodeAddress(trimmed)
	if err != nil {
		return id, err
	}
	return addr.Identity(), nil
}

// HexIdentity renders an identity in checksummed hex form.
func HexIdentity(id [20]byte) string {
	return common.Address(id).Hex()
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Identity returns the 20-byte identity derived from the key.
func (k *PrivateKey) Identity() [20]byte {
	return crypto.PubkeyToAddress(k.PrivateKey.PublicKey)
}

func (k *PublicKey) Address() Address {
	return FromIdentity(crypto.PubkeyToAddress(*k.PublicKey))
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// PrivateKeyFromHex parses a hex encoded secp256k1 key, with or without 0x.
func PrivateKeyFromHex(raw string) (*PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		return nil, errors.New("crypto: empty private key")
	}
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
