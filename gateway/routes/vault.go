package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"reservevault/native/vault"
)

func (a *api) getAccount(w http.ResponseWriter, r *http.Request) {
	identity, err := pathIdentity(r, "identity")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var view *vault.AccountView
	if err := a.svc.View(func() (err error) {
		view, err = a.svc.Vault().Account(identity)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Identity:                   display(view.Identity),
		Exists:                     view.Exists,
		Balance:                    dec(view.Balance),
		ReservedTotal:              dec(view.ReservedTotal),
		ReservedConsumed:           dec(view.ReservedConsumed),
		ReservedAvail:              dec(view.ReservedAvail),
		Withdrawable:               dec(view.Withdrawable),
		ClaimableBuffer:            dec(view.ClaimableBuffer),
		CumulativeRoyalty:          dec(view.CumulativeRoyalty),
		Available:                  dec(view.Available),
		LastUpdate:                 view.LastUpdate,
		AccumulatedReservedSeconds: dec(view.AccumulatedReservedSeconds),
	})
}

func (a *api) getRoyalty(w http.ResponseWriter, r *http.Request) {
	identity, err := pathIdentity(r, "identity")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var record *vault.RoyaltyAccount
	if err := a.svc.View(func() (err error) {
		record, err = a.svc.Vault().Royalty(identity)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"identity":            display(identity),
		"claimableBuffer":     dec(record.ClaimableBuffer),
		"cumulativeAllocated": dec(record.CumulativeAllocated),
	})
}

func (a *api) getTotals(w http.ResponseWriter, r *http.Request) {
	var (
		totals   *vault.Totals
		holdings *uint256.Int
		excess   *uint256.Int
	)
	if err := a.svc.View(func() (err error) {
		if totals, err = a.svc.Vault().Totals(); err != nil {
			return err
		}
		if holdings, err = a.svc.DepositCustody().Balance(); err != nil {
			return err
		}
		excess, err = a.svc.Vault().ExcessSweepable()
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{
		Deposits:           dec(totals.Deposits),
		ConsumedForRoyalty: dec(totals.ConsumedForRoyalty),
		RoyaltyAllocated:   dec(totals.RoyaltyAllocated),
		RoyaltyPaid:        dec(totals.RoyaltyPaid),
		Holdings:           dec(holdings),
		ExcessSweepable:    dec(excess),
	})
}

func (a *api) getParams(w http.ResponseWriter, r *http.Request) {
	var (
		params *vault.Params
		paused bool
	)
	if err := a.svc.View(func() (err error) {
		params, err = a.svc.Vault().Params()
		paused = a.svc.Vault().Paused()
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	resp := paramsResponse{DepositCap: dec(params.DepositCap), Paused: paused}
	if params.Admin != ([20]byte{}) {
		resp.Admin = display(params.Admin)
	}
	if params.Treasury != ([20]byte{}) {
		resp.Treasury = display(params.Treasury)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) getDomain(w http.ResponseWriter, r *http.Request) {
	var separator [32]byte
	if err := a.svc.View(func() (err error) {
		separator, err = a.svc.Vault().DomainSeparator()
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	contract := a.svc.VaultAddress()
	writeJSON(w, http.StatusOK, domainResponse{
		Name:              vault.DomainName,
		Version:           vault.DomainVersion,
		ChainID:           a.svc.ChainID().String(),
		VerifyingContract: hexBytes(contract[:]),
		Separator:         hexBytes(separator[:]),
	})
}

func (a *api) getRole(w http.ResponseWriter, r *http.Request) {
	role, ok := vault.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		a.fail(w, r, vault.ErrInvalidRole)
		return
	}
	member, err := pathIdentity(r, "identity")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var enabled bool
	if err := a.svc.View(func() (err error) {
		enabled, err = a.svc.Vault().HasRole(role, member)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{Role: role.String(), Member: display(member), Enabled: enabled})
}

func (a *api) getRight(w http.ResponseWriter, r *http.Request) {
	rightID, err := parseRight(chi.URLParam(r, "rightId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var (
		dest  [20]byte
		bound bool
	)
	if err := a.svc.View(func() (err error) {
		dest, bound, err = a.svc.Vault().RightDestination(rightID)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	resp := rightResponse{RightID: hexBytes(rightID[:]), Bound: bound}
	if bound {
		resp.Destination = display(dest)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) deposit(w http.ResponseWriter, r *http.Request) {
	a.amountOp(w, r, "deposit", a.svc.Vault().Deposit)
}

func (a *api) withdraw(w http.ResponseWriter, r *http.Request) {
	a.amountOp(w, r, "withdraw", a.svc.Vault().Withdraw)
}

func (a *api) increaseReserved(w http.ResponseWriter, r *http.Request) {
	a.amountOp(w, r, "increase_reserved", a.svc.Vault().IncreaseReserved)
}

func (a *api) decreaseReserved(w http.ResponseWriter, r *http.Request) {
	a.amountOp(w, r, "decrease_reserved", a.svc.Vault().DecreaseReserved)
}

func (a *api) withdrawRoyalty(w http.ResponseWriter, r *http.Request) {
	a.amountOp(w, r, "withdraw_royalty", a.svc.Vault().WithdrawRoyalty)
}

func (a *api) sweep(w http.ResponseWriter, r *http.Request) {
	a.amountOp(w, r, "sweep_excess", a.svc.Vault().SweepExcess)
}

func (a *api) setDepositCap(w http.ResponseWriter, r *http.Request) {
	a.amountOp(w, r, "set_deposit_cap", a.svc.Vault().SetDepositCap)
}

func (a *api) amountOp(w http.ResponseWriter, r *http.Request, name string, op func([20]byte, *uint256.Int) error) {
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.execute(w, r, name, func(caller [20]byte) error {
		return op(caller, amount)
	})
}

type signedUpdate struct {
	subject    [20]byte
	cumulative *uint256.Int
	windowID   *uint256.Int
	deadline   *uint256.Int
	signature  []byte
}

func parseSignedUpdate(req signedUpdateRequest) (*signedUpdate, error) {
	subject, err := parseIdentity("subject", req.Subject)
	if err != nil {
		return nil, err
	}
	cumulative, err := parseAmount("cumulative", req.Cumulative)
	if err != nil {
		return nil, err
	}
	windowID, err := parseAmount("windowId", req.WindowID)
	if err != nil {
		return nil, err
	}
	deadline, err := parseAmount("deadline", req.Deadline)
	if err != nil {
		return nil, err
	}
	sig, err := parseSignature(req.Signature)
	if err != nil {
		return nil, err
	}
	return &signedUpdate{subject: subject, cumulative: cumulative, windowID: windowID, deadline: deadline, signature: sig}, nil
}

// syncConsumption relays a signed consumption update. Any authenticated caller
// may relay; authority comes from the signature.
func (a *api) syncConsumption(w http.ResponseWriter, r *http.Request) {
	var req signedUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	update, err := parseSignedUpdate(req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	msg := vault.ConsumptionSync{
		Subject:            update.subject,
		CumulativeConsumed: update.cumulative,
		WindowID:           update.windowID,
		Deadline:           update.deadline,
	}
	a.execute(w, r, "sync_consumption", func([20]byte) error {
		return a.svc.Vault().SyncConsumption(msg, update.signature)
	})
}

func (a *api) claimRoyalty(w http.ResponseWriter, r *http.Request) {
	var req signedUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	update, err := parseSignedUpdate(req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	msg := vault.RoyaltyAllocation{
		Subject:             update.subject,
		CumulativeAllocated: update.cumulative,
		WindowID:            update.windowID,
		Deadline:            update.deadline,
	}
	a.execute(w, r, "claim_royalty", func([20]byte) error {
		return a.svc.Vault().ClaimRoyalty(msg, update.signature)
	})
}

func (a *api) participate(w http.ResponseWriter, r *http.Request) {
	var req participateRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	identity, err := parseIdentity("identity", req.Identity)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rightID, err := parseRight(req.RightID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.execute(w, r, "participate", func(caller [20]byte) error {
		return a.svc.Vault().Participate(caller, identity, amount, rightID)
	})
}

func (a *api) transferAdmin(w http.ResponseWriter, r *http.Request) {
	a.identityOp(w, r, "transfer_admin", a.svc.Vault().TransferAdmin)
}

func (a *api) setTreasury(w http.ResponseWriter, r *http.Request) {
	a.identityOp(w, r, "set_treasury", a.svc.Vault().SetTreasury)
}

func (a *api) identityOp(w http.ResponseWriter, r *http.Request, name string, op func(caller, target [20]byte) error) {
	var req identityRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	target, err := parseIdentity("identity", req.Identity)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.execute(w, r, name, func(caller [20]byte) error {
		return op(caller, target)
	})
}

func (a *api) setRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	role, ok := vault.ParseRole(strings.TrimSpace(req.Role))
	if !ok {
		a.fail(w, r, vault.ErrInvalidRole)
		return
	}
	member, err := parseIdentity("member", req.Member)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.execute(w, r, "set_role", func(caller [20]byte) error {
		return a.svc.Vault().SetRole(caller, role, member, req.Enabled)
	})
}

func (a *api) bindRight(w http.ResponseWriter, r *http.Request) {
	var req rightRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	rightID, err := parseRight(req.RightID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	dest, err := parseIdentity("destination", req.Destination)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.execute(w, r, "bind_right", func(caller [20]byte) error {
		return a.svc.Vault().BindRight(caller, rightID, dest)
	})
}

func (a *api) pause(w http.ResponseWriter, r *http.Request) {
	a.execute(w, r, "pause", a.svc.Vault().Pause)
}

func (a *api) unpause(w http.ResponseWriter, r *http.Request) {
	a.execute(w, r, "unpause", a.svc.Vault().Unpause)
}
