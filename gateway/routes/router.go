package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"reservevault/core"
	"reservevault/gateway/middleware"
	"reservevault/services/audit"
)

// Config wires the HTTP API.
type Config struct {
	Service       *core.Service
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	// Journal backs the audit listing. Optional.
	Journal *audit.Journal
	Logger  *log.Logger
	// Tracing wraps the router with otelhttp spans.
	Tracing bool
}

type api struct {
	svc     *core.Service
	journal *audit.Journal
	logger  *log.Logger
}

// New builds the vault API router.
func New(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("routes: service required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("routes: authenticator required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	a := &api{svc: cfg.Service, journal: cfg.Journal, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.Observability != nil {
		r.Use(cfg.Observability.Middleware)
		r.Handle("/metrics", cfg.Observability.MetricsHandler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware())
		}

		r.Get("/vault/accounts/{identity}", a.getAccount)
		r.Get("/vault/accounts/{identity}/royalty", a.getRoyalty)
		r.Get("/vault/totals", a.getTotals)
		r.Get("/vault/params", a.getParams)
		r.Get("/vault/domain", a.getDomain)
		r.Get("/vault/roles/{role}/{identity}", a.getRole)
		r.Get("/vault/rights/{rightId}", a.getRight)
		r.Get("/distributor/epochs/{epoch}", a.getEpoch)
		r.Get("/distributor/epochs/{epoch}/claimed/{identity}", a.getClaimed)
		r.Get("/assets/{symbol}/balances/{identity}", a.getBalance)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticator.Middleware())

			r.Post("/vault/deposit", a.deposit)
			r.Post("/vault/withdraw", a.withdraw)
			r.Post("/vault/reserve/increase", a.increaseReserved)
			r.Post("/vault/reserve/decrease", a.decreaseReserved)
			r.Post("/vault/consumption", a.syncConsumption)
			r.Post("/vault/royalty", a.claimRoyalty)
			r.Post("/vault/royalty/withdraw", a.withdrawRoyalty)
			r.Post("/vault/participate", a.participate)
			r.Post("/distributor/claim", a.claim)
			r.Post("/assets/{symbol}/transfer", a.transfer)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/transfer", a.transferAdmin)
				r.Post("/treasury", a.setTreasury)
				r.Post("/deposit-cap", a.setDepositCap)
				r.Post("/roles", a.setRole)
				r.Post("/rights", a.bindRight)
				r.Post("/pause", a.pause)
				r.Post("/unpause", a.unpause)
				r.Post("/sweep", a.sweep)
				r.Post("/distributor/roots", a.setRoot)
				r.Get("/audit", a.listAudit)
			})
		})
	})

	if cfg.Tracing {
		return otelhttp.NewHandler(r, "vault-api"), nil
	}
	return r, nil
}

// fail writes err to the client and logs anything that is not a client error.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	if StatusFor(err) == http.StatusInternalServerError {
		a.logger.Printf("request %s %s failed: %v (request_id=%s)", r.Method, r.URL.Path, err, middleware.RequestIDFromContext(r.Context()))
	}
	writeError(w, err)
}

func (a *api) caller(w http.ResponseWriter, r *http.Request) ([20]byte, bool) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	}
	return caller, ok
}

// execute runs fn as one committed operation on behalf of the caller and
// writes a status response on success.
func (a *api) execute(w http.ResponseWriter, r *http.Request, name string, fn func(caller [20]byte) error) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if err := a.svc.Execute(r.Context(), name, func() error { return fn(caller) }); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "committed"})
}
