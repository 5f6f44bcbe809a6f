package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"reservevault/config"
	"reservevault/core"
	"reservevault/core/events"
	"reservevault/gateway/middleware"
	"reservevault/gateway/routes"
	"reservevault/observability/logging"
	"reservevault/observability/metrics"
	telemetry "reservevault/observability/otel"
	"reservevault/services/audit"
	"reservevault/storage"
)

func main() {
	configFile := flag.String("config", "./vault.toml", "Path to the configuration file")
	bootstrapFlag := flag.String("bootstrap", "", "Path to a bootstrap manifest (overrides VAULT_BOOTSTRAP and config BootstrapFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	env := strings.TrimSpace(os.Getenv("VAULT_ENV"))
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.New(logging.Options{
		Service:    "vaultd",
		Env:        env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	if err := run(cfg, env, resolveBootstrapPath(*bootstrapFlag, cfg.BootstrapFile), logger); err != nil {
		logger.Error("vaultd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, env, bootstrapPath string, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.FromConfig(cfg.Telemetry, env))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	db, err := openStorage(cfg)
	if err != nil {
		return err
	}

	if err := prepareAuditDir(cfg.Audit.DSN); err != nil {
		_ = db.Close()
		return err
	}
	journal, err := audit.Open(cfg.Audit.DSN)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("open audit journal: %w", err)
	}
	defer journal.Close()

	svc, err := core.NewService(db, core.Options{
		ChainID:            new(big.Int).SetUint64(cfg.ChainID),
		VaultAddress:       cfg.VaultIdentity(),
		DistributorAddress: cfg.DistributorIdentity(),
		DepositAsset:       cfg.DepositAsset,
		RewardAsset:        cfg.RewardAsset,
		Journal:            journal,
		Logger:             logger,
		Metrics:            metrics.Vault(),
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create service: %w", err)
	}
	defer svc.Close()
	svc.AddEmitter(logEmitter{logger: logger.With(slog.String("component", "events"))})

	if bootstrapPath != "" {
		manifest, err := config.LoadBootstrap(bootstrapPath)
		if err != nil {
			return err
		}
		if err := svc.RegisterVenues(manifest); err != nil {
			return fmt.Errorf("register venues: %w", err)
		}
		applied, err := svc.ApplyBootstrap(context.Background(), manifest)
		if err != nil {
			return fmt.Errorf("apply bootstrap: %w", err)
		}
		logger.Info("bootstrap manifest loaded",
			slog.String("path", bootstrapPath),
			slog.Bool("applied", applied),
			slog.Int("venues", len(manifest.Venues)))
	}

	stdLogger := log.New(os.Stdout, "vaultd ", log.LstdFlags|log.Lmsgprefix)
	if !cfg.Auth.Enabled {
		logger.Warn("authentication disabled; callers are taken from " + middleware.HeaderCallerIdentity)
	}
	handler, err := routes.New(routes.Config{
		Service: svc,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.Auth.ClockSkew.Duration,
		}, stdLogger),
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimit{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		}, stdLogger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "vaultd",
			LogRequests: cfg.HTTP.LogRequests,
		}, stdLogger),
		Journal: journal,
		Logger:  stdLogger,
		Tracing: cfg.Telemetry.Enabled && cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("configure routes: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", slog.Any("error", err))
	}
	return nil
}

// resolveBootstrapPath prefers the flag, then VAULT_BOOTSTRAP, then the
// config file entry.
func resolveBootstrapPath(flagValue, configured string) string {
	if path := strings.TrimSpace(flagValue); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv("VAULT_BOOTSTRAP")); path != "" {
		return path
	}
	return strings.TrimSpace(configured)
}

func openStorage(cfg *config.Config) (storage.Database, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemDB(), nil
	case config.StorageBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("prepare data dir: %w", err)
		}
		db, err := storage.NewBoltDB(filepath.Join(cfg.DataDir, "vault.bolt"), nil)
		if err != nil {
			return nil, fmt.Errorf("open bolt: %w", err)
		}
		return db, nil
	default:
		db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
		if err != nil {
			return nil, fmt.Errorf("open leveldb: %w", err)
		}
		return db, nil
	}
}

// prepareAuditDir creates the parent directory of a sqlite journal path.
func prepareAuditDir(dsn string) error {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || strings.Contains(dsn, "://") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return fmt.Errorf("prepare audit dir: %w", err)
	}
	return nil
}

// logEmitter writes committed events at debug level with identities masked.
type logEmitter struct {
	logger *slog.Logger
}

func (e logEmitter) Emit(evt events.Event) {
	payload := evt.Event()
	if payload == nil {
		return
	}
	attrs := make([]any, 0, len(payload.Attributes)+1)
	attrs = append(attrs, slog.String("type", payload.Type))
	for key, value := range payload.Attributes {
		attrs = append(attrs, logging.MaskField(key, value))
	}
	e.logger.Debug("event", attrs...)
}
