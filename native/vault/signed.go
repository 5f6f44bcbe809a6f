package vault

import (
	"crypto/ecdsa"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
)

const (
	DomainName    = "ReserveVault"
	DomainVersion = "1"

	consumptionType = "ConsumptionSync"
	royaltyType     = "RoyaltyAllocation"
)

var typedDataTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	consumptionType: {
		{Name: "subject", Type: "address"},
		{Name: "cumulativeConsumed", Type: "uint256"},
		{Name: "windowId", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
	royaltyType: {
		{Name: "subject", Type: "address"},
		{Name: "cumulativeAllocated", Type: "uint256"},
		{Name: "windowId", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
}

// ConsumptionSync attests the subject's new cumulative consumed reserve.
type ConsumptionSync struct {
	Subject            [20]byte
	CumulativeConsumed *uint256.Int
	WindowID           *uint256.Int
	Deadline           *uint256.Int
}

// RoyaltyAllocation attests the subject's new cumulative royalty allocation.
type RoyaltyAllocation struct {
	Subject             [20]byte
	CumulativeAllocated *uint256.Int
	WindowID            *uint256.Int
	Deadline            *uint256.Int
}

// Domain computes EIP-712 digests bound to the vault's name, version,
// contract identity and the live chain id. The separator is cached and
// recomputed when the chain id changes.
type Domain struct {
	mu        sync.Mutex
	contract  [20]byte
	chainID   *big.Int
	separator []byte
}

// NewDomain returns a signing domain for the vault deployed at contract.
func NewDomain(contract [20]byte) *Domain {
	return &Domain{contract: contract}
}

// Contract returns the verifying contract identity.
func (d *Domain) Contract() [20]byte { return d.contract }

func (d *Domain) typedDomain(chainID *big.Int) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
		VerifyingContract: ethcommon.BytesToAddress(d.contract[:]).Hex(),
	}
}

// Separator returns the domain separator for chainID.
func (d *Domain) Separator(chainID *big.Int) ([32]byte, error) {
	var out [32]byte
	if chainID == nil || chainID.Sign() <= 0 {
		return out, ErrDomainNotConfigured
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.separator == nil || d.chainID.Cmp(chainID) != 0 {
		td := apitypes.TypedData{Types: typedDataTypes, Domain: d.typedDomain(chainID)}
		separator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
		if err != nil {
			return out, err
		}
		d.chainID = new(big.Int).Set(chainID)
		d.separator = append([]byte(nil), separator...)
	}
	copy(out[:], d.separator)
	return out, nil
}

func (d *Domain) digest(chainID *big.Int, primaryType string, message apitypes.TypedDataMessage) ([32]byte, error) {
	var out [32]byte
	separator, err := d.Separator(chainID)
	if err != nil {
		return out, err
	}
	td := apitypes.TypedData{Types: typedDataTypes, PrimaryType: primaryType, Domain: d.typedDomain(chainID)}
	structHash, err := td.HashStruct(primaryType, message)
	if err != nil {
		return out, err
	}
	raw := make([]byte, 0, 2+len(separator)+len(structHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, separator[:]...)
	raw = append(raw, structHash...)
	copy(out[:], ethcrypto.Keccak256(raw))
	return out, nil
}

// ConsumptionDigest returns the hash a consumption signer signs.
func (d *Domain) ConsumptionDigest(chainID *big.Int, msg ConsumptionSync) ([32]byte, error) {
	return d.digest(chainID, consumptionType, apitypes.TypedDataMessage{
		"subject":            ethcommon.BytesToAddress(msg.Subject[:]).Hex(),
		"cumulativeConsumed": cloneInt(msg.CumulativeConsumed).ToBig(),
		"windowId":           cloneInt(msg.WindowID).ToBig(),
		"deadline":           cloneInt(msg.Deadline).ToBig(),
	})
}

// RoyaltyDigest returns the hash a royalty signer signs.
func (d *Domain) RoyaltyDigest(chainID *big.Int, msg RoyaltyAllocation) ([32]byte, error) {
	return d.digest(chainID, royaltyType, apitypes.TypedDataMessage{
		"subject":             ethcommon.BytesToAddress(msg.Subject[:]).Hex(),
		"cumulativeAllocated": cloneInt(msg.CumulativeAllocated).ToBig(),
		"windowId":            cloneInt(msg.WindowID).ToBig(),
		"deadline":            cloneInt(msg.Deadline).ToBig(),
	})
}

// SignDigest produces a 65 byte recoverable signature with a 27/28 recovery id.
func SignDigest(key *ecdsa.PrivateKey, digest [32]byte) ([]byte, error) {
	sig, err := ethcrypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// RecoverSigner returns the identity that produced sig over digest. Only
// low-s signatures are accepted and the recovery id may be 0/1 or 27/28.
func RecoverSigner(digest [32]byte, sig []byte) ([20]byte, error) {
	var signer [20]byte
	if len(sig) != 65 {
		return signer, ErrSignatureLength
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !ethcrypto.ValidateSignatureValues(normalized[64], r, s, true) {
		return signer, ErrSignatureInvalid
	}
	pubKey, err := ethcrypto.SigToPub(digest[:], normalized)
	if err != nil {
		return signer, ErrSignatureInvalid
	}
	return ethcrypto.PubkeyToAddress(*pubKey), nil
}

// DomainSeparator exposes the separator for the current chain id.
func (e *Engine) DomainSeparator() ([32]byte, error) {
	chainID, err := e.chainID()
	if err != nil {
		return [32]byte{}, err
	}
	return e.domain.Separator(chainID)
}

// ConsumptionDigest exposes the digest signers must sign for msg.
func (e *Engine) ConsumptionDigest(msg ConsumptionSync) ([32]byte, error) {
	chainID, err := e.chainID()
	if err != nil {
		return [32]byte{}, err
	}
	return e.domain.ConsumptionDigest(chainID, msg)
}

// RoyaltyDigest exposes the digest signers must sign for msg.
func (e *Engine) RoyaltyDigest(msg RoyaltyAllocation) ([32]byte, error) {
	chainID, err := e.chainID()
	if err != nil {
		return [32]byte{}, err
	}
	return e.domain.RoyaltyDigest(chainID, msg)
}

// verify checks the deadline, recovers the signer and requires role
// membership.
func (e *Engine) verify(digest [32]byte, deadline *uint256.Int, sig []byte, role Role) ([20]byte, error) {
	var signer [20]byte
	if uint256.NewInt(e.nowUnix()).Gt(cloneInt(deadline)) {
		return signer, ErrExpired
	}
	signer, err := RecoverSigner(digest, sig)
	if err != nil {
		return signer, err
	}
	allowed, err := e.hasRole(role, signer)
	if err != nil {
		return signer, err
	}
	if !allowed {
		return signer, ErrUnauthorizedSigner
	}
	return signer, nil
}
