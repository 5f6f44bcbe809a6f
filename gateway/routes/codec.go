package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"reservevault/core"
	"reservevault/crypto"
	"reservevault/native/vault"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

func parseAmount(field, raw string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errBadRequest, field, err)
	}
	return amount, nil
}

func parseIdentity(field, raw string) ([20]byte, error) {
	id, err := crypto.ParseIdentity(raw)
	if err != nil {
		return id, fmt.Errorf("%w: %s: %v", errBadRequest, field, err)
	}
	return id, nil
}

func pathIdentity(r *http.Request, param string) ([20]byte, error) {
	return parseIdentity(param, chi.URLParam(r, param))
}

func parseRight(raw string) ([32]byte, error) {
	id, err := vault.ParseRightID(raw)
	if err != nil {
		return id, fmt.Errorf("%w: rightId: %v", errBadRequest, err)
	}
	return id, nil
}

func parseHash(field, raw string) ([32]byte, error) {
	h, err := core.ParseHash(raw)
	if err != nil {
		return h, fmt.Errorf("%w: %s: %v", errBadRequest, field, err)
	}
	return h, nil
}

func parseEpoch(raw string) (uint64, error) {
	epoch, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: epoch: %v", errBadRequest, err)
	}
	return epoch, nil
}

func parseSignature(raw string) ([]byte, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", errBadRequest, err)
	}
	return sig, nil
}

func dec(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func display(id [20]byte) string { return crypto.FromIdentity(id).String() }

func hexBytes(b []byte) string { return hexutil.Encode(b) }
