package routes

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"reservevault/native/vault"
	"reservevault/services/audit"
)

func (a *api) getEpoch(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpoch(chi.URLParam(r, "epoch"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var (
		root [32]byte
		set  bool
	)
	if err := a.svc.View(func() (err error) {
		root, set, err = a.svc.Distributor().Root(epoch)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	resp := epochResponse{Epoch: epoch, Set: set}
	if set {
		resp.Root = hexBytes(root[:])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) getClaimed(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpoch(chi.URLParam(r, "epoch"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	identity, err := pathIdentity(r, "identity")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var claimed *uint256.Int
	if err := a.svc.View(func() (err error) {
		claimed, err = a.svc.Distributor().Claimed(epoch, identity)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claimedResponse{Epoch: epoch, Identity: display(identity), Claimed: dec(claimed)})
}

func (a *api) claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	cumulative, err := parseAmount("cumulative", req.Cumulative)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	proof := make([][32]byte, 0, len(req.Proof))
	for _, raw := range req.Proof {
		node, err := parseHash("proof", raw)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		proof = append(proof, node)
	}
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var paid *uint256.Int
	if err := a.svc.Execute(r.Context(), "claim", func() (err error) {
		paid, err = a.svc.Distributor().Claim(caller, req.Epoch, cumulative, proof)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{Paid: dec(paid)})
}

func (a *api) setRoot(w http.ResponseWriter, r *http.Request) {
	var req rootRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	root, err := parseHash("root", req.Root)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.execute(w, r, "set_root", func(caller [20]byte) error {
		return a.svc.Distributor().SetRoot(caller, req.Epoch, root)
	})
}

func (a *api) getBalance(w http.ResponseWriter, r *http.Request) {
	tok, err := a.svc.Token(chi.URLParam(r, "symbol"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	identity, err := pathIdentity(r, "identity")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var balance *uint256.Int
	if err := a.svc.View(func() (err error) {
		balance, err = tok.BalanceOf(identity)
		return err
	}); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Asset: tok.Symbol(), Identity: display(identity), Balance: dec(balance)})
}

func (a *api) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	to, err := parseIdentity("to", req.To)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if err := a.svc.Transfer(r.Context(), chi.URLParam(r, "symbol"), caller, to, amount); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "committed"})
}

// listAudit pages through the audit journal. Administrator only.
func (a *api) listAudit(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if a.journal == nil {
		a.fail(w, r, errNotFound)
		return
	}
	var admin bool
	_ = a.svc.View(func() error {
		admin = a.svc.Vault().IsAdmin(caller)
		return nil
	})
	if !admin {
		a.fail(w, r, vault.ErrUnauthorized)
		return
	}
	query := r.URL.Query()
	filter := audit.Filter{Type: strings.TrimSpace(query.Get("type")), Limit: 100}
	if raw := strings.TrimSpace(query.Get("subject")); raw != "" {
		subject, err := parseIdentity("subject", raw)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		filter.Subject = display(subject)
	}
	if raw := query.Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			a.fail(w, r, errBadRequest)
			return
		}
		filter.After = after
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 1000 {
			a.fail(w, r, errBadRequest)
			return
		}
		filter.Limit = limit
	}
	records, err := a.journal.List(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]auditRecord, 0, len(records))
	for _, rec := range records {
		attrs, err := rec.Attrs()
		if err != nil {
			a.fail(w, r, err)
			return
		}
		out = append(out, auditRecord{
			Sequence:    rec.Sequence,
			ID:          rec.ID.String(),
			Operation:   rec.Operation,
			Type:        rec.Type,
			Subject:     rec.Subject,
			WindowID:    rec.WindowID,
			Attributes:  attrs,
			CommittedAt: rec.CommittedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
