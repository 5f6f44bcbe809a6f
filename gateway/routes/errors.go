package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reservevault/core"
	"reservevault/native/bank"
	"reservevault/native/common"
	"reservevault/native/distributor"
	"reservevault/native/vault"
)

type errorResponse struct {
	Error string `json:"error"`
}

var statusTable = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		errBadRequest,
		vault.ErrInvalidAmount, vault.ErrZeroAddress, vault.ErrInvalidRole, vault.ErrSignatureLength,
		distributor.ErrInvalidAmount, distributor.ErrZeroRoot,
		bank.ErrZeroAddress, bank.ErrInvalidSymbol, core.ErrUnknownAsset,
	}},
	{http.StatusForbidden, []error{
		vault.ErrUnauthorized, vault.ErrUnauthorizedSigner, vault.ErrAdminNotSet,
		vault.ErrDestinationNotApproved, vault.ErrCustodyIdentity, distributor.ErrUnauthorized,
		core.ErrCustodySpender,
	}},
	{http.StatusLocked, []error{common.ErrModulePaused}},
	{http.StatusConflict, []error{
		vault.ErrNoChange, vault.ErrAdminAlreadySet, vault.ErrCumulativeDecreased,
		distributor.ErrRootAlreadySet, distributor.ErrAlreadyClaimed, common.ErrReentrant,
	}},
	{http.StatusGone, []error{vault.ErrDeprecated}},
	{http.StatusNotFound, []error{errNotFound, distributor.ErrRootNotSet}},
	{http.StatusServiceUnavailable, []error{vault.ErrVenueUnavailable}},
	{http.StatusUnprocessableEntity, []error{
		vault.ErrDepositCapExceeded, vault.ErrOverflow, vault.ErrInsufficientWithdrawable,
		vault.ErrInsufficientReserve, vault.ErrInsufficientBalance, vault.ErrInsufficientExcess,
		vault.ErrExceedsReserved, vault.ErrRoyaltyBudgetExceeded, vault.ErrSignatureInvalid,
		vault.ErrExpired, vault.ErrTreasuryNotSet, vault.ErrPullMismatch,
		distributor.ErrInvalidProof,
		bank.ErrInsufficientBalance, bank.ErrInsufficientAllowance, bank.ErrBalanceOverflow,
	}},
}

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

// StatusFor maps a ledger error onto the HTTP status returned to clients.
func StatusFor(err error) int {
	for _, row := range statusTable {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.status
			}
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := strings.TrimSpace(err.Error())
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
