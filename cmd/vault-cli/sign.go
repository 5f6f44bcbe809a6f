package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"reservevault/cmd/internal/passphrase"
	"reservevault/crypto"
	"reservevault/native/vault"
)

const signerPassEnv = "VAULT_SIGNER_PASS"

var (
	nowFn          = time.Now
	passphraseFunc = func() (string, error) {
		return passphrase.NewSource(signerPassEnv, "signer keystore").Get()
	}
)

type signedUpdate struct {
	Subject    string `json:"subject"`
	Cumulative string `json:"cumulative"`
	WindowID   string `json:"windowId"`
	Deadline   string `json:"deadline"`
	Signature  string `json:"signature"`
	Signer     string `json:"signer"`
}

type signRequest struct {
	domain     *vault.Domain
	chainID    *big.Int
	subject    [20]byte
	cumulative *uint256.Int
	windowID   *uint256.Int
	deadline   *uint256.Int
}

type signFunc func(req signRequest) ([32]byte, error)

func signConsumption(req signRequest) ([32]byte, error) {
	return req.domain.ConsumptionDigest(req.chainID, vault.ConsumptionSync{
		Subject:            req.subject,
		CumulativeConsumed: req.cumulative,
		WindowID:           req.windowID,
		Deadline:           req.deadline,
	})
}

func signRoyalty(req signRequest) ([32]byte, error) {
	return req.domain.RoyaltyDigest(req.chainID, vault.RoyaltyAllocation{
		Subject:             req.subject,
		CumulativeAllocated: req.cumulative,
		WindowID:            req.windowID,
		Deadline:            req.deadline,
	})
}

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var path string
	fs.StringVar(&path, "keystore", "", "path of the keystore file to create")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(path) == "" {
		return fail(stderr, errors.New("--keystore is required"))
	}
	pass, err := passphraseFunc()
	if err != nil {
		return fail(stderr, err)
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return fail(stderr, err)
	}
	if err := crypto.SaveToKeystore(path, key, pass); err != nil {
		return fail(stderr, err)
	}
	return writeJSON(stdout, map[string]string{
		"identity": key.PubKey().Address().String(),
		"hex":      crypto.HexIdentity(key.Identity()),
		"keystore": path,
	})
}

func runSign(sign signFunc, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		keystorePath, vaultAddr, subject, cumulative, window string
		chainID, deadline                                    uint64
		ttl                                                  time.Duration
	)
	fs.StringVar(&keystorePath, "keystore", "", "signer keystore file")
	fs.StringVar(&vaultAddr, "vault", "", "vault identity (verifying contract)")
	fs.Uint64Var(&chainID, "chain-id", 0, "chain id bound into the digest")
	fs.StringVar(&subject, "subject", "", "identity the update applies to")
	fs.StringVar(&cumulative, "cumulative", "", "cumulative total for the subject")
	fs.StringVar(&window, "window", "0", "settlement window id")
	fs.Uint64Var(&deadline, "deadline", 0, "unix deadline; defaults to now+ttl")
	fs.DurationVar(&ttl, "ttl", 10*time.Minute, "validity when --deadline is not set")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		return fail(stderr, errors.New("unexpected positional arguments"))
	}
	req, err := buildSignRequest(vaultAddr, chainID, subject, cumulative, window, deadline, ttl)
	if err != nil {
		return fail(stderr, err)
	}
	if strings.TrimSpace(keystorePath) == "" {
		return fail(stderr, errors.New("--keystore is required"))
	}
	pass, err := passphraseFunc()
	if err != nil {
		return fail(stderr, err)
	}
	key, err := crypto.LoadFromKeystore(keystorePath, pass)
	if err != nil {
		return fail(stderr, fmt.Errorf("load keystore: %w", err))
	}
	out, err := signUpdate(sign, req, key)
	if err != nil {
		return fail(stderr, err)
	}
	return writeJSON(stdout, out)
}

func buildSignRequest(vaultAddr string, chainID uint64, subject, cumulative, window string, deadline uint64, ttl time.Duration) (signRequest, error) {
	var req signRequest
	contract, err := crypto.ParseIdentity(vaultAddr)
	if err != nil {
		return req, fmt.Errorf("--vault: %w", err)
	}
	if chainID == 0 {
		return req, errors.New("--chain-id is required")
	}
	if req.subject, err = crypto.ParseIdentity(subject); err != nil {
		return req, fmt.Errorf("--subject: %w", err)
	}
	if req.cumulative, err = uint256.FromDecimal(strings.TrimSpace(cumulative)); err != nil {
		return req, fmt.Errorf("--cumulative: %w", err)
	}
	if req.windowID, err = uint256.FromDecimal(strings.TrimSpace(window)); err != nil {
		return req, fmt.Errorf("--window: %w", err)
	}
	if deadline == 0 {
		deadline = uint64(nowFn().Add(ttl).Unix())
	}
	req.deadline = uint256.NewInt(deadline)
	req.domain = vault.NewDomain(contract)
	req.chainID = new(big.Int).SetUint64(chainID)
	return req, nil
}

func signUpdate(sign signFunc, req signRequest, key *crypto.PrivateKey) (*signedUpdate, error) {
	digest, err := sign(req)
	if err != nil {
		return nil, err
	}
	sig, err := vault.SignDigest(key.PrivateKey, digest)
	if err != nil {
		return nil, err
	}
	return &signedUpdate{
		Subject:    crypto.HexIdentity(req.subject),
		Cumulative: req.cumulative.Dec(),
		WindowID:   req.windowID.Dec(),
		Deadline:   req.deadline.Dec(),
		Signature:  hexutil.Encode(sig),
		Signer:     crypto.HexIdentity(key.Identity()),
	}, nil
}
