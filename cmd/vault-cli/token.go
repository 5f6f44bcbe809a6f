package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"reservevault/config"
	"reservevault/crypto"
	"reservevault/gateway/middleware"
	"reservevault/services/audit"
)

const authSecretEnv = "VAULT_AUTH_SECRET"

func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath, identity, issuer, audience string
		ttl                                    time.Duration
	)
	fs.StringVar(&configPath, "config", "", "daemon config file to read the auth section from")
	fs.StringVar(&identity, "identity", "", "identity the token authenticates")
	fs.StringVar(&issuer, "issuer", "", "issuer claim; defaults to the config value")
	fs.StringVar(&audience, "audience", "", "audience claim; defaults to the config value")
	fs.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	id, err := crypto.ParseIdentity(identity)
	if err != nil {
		return fail(stderr, fmt.Errorf("--identity: %w", err))
	}
	secret := strings.TrimSpace(os.Getenv(authSecretEnv))
	if path := strings.TrimSpace(configPath); path != "" {
		// config.Load writes a default file when none exists, which would mint
		// a secret no daemon uses.
		if _, err := os.Stat(path); err != nil {
			return fail(stderr, err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fail(stderr, err)
		}
		secret = cfg.Auth.HMACSecret
		if issuer == "" {
			issuer = cfg.Auth.Issuer
		}
		if audience == "" {
			audience = cfg.Auth.Audience
		}
	}
	if secret == "" {
		return fail(stderr, fmt.Errorf("signing secret required; pass --config or set %s", authSecretEnv))
	}
	token, err := middleware.IssueToken(secret, id, issuer, audience, ttl, nowFn())
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, token)
	return 0
}

func runExportAudit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export-audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var dsn, out, subject, eventType string
	var after uint64
	fs.StringVar(&dsn, "dsn", "", "audit journal DSN (sqlite path or postgres URL)")
	fs.StringVar(&out, "out", "audit.parquet", "parquet file to write")
	fs.StringVar(&subject, "subject", "", "only records for this identity")
	fs.StringVar(&eventType, "type", "", "only records of this event type")
	fs.Uint64Var(&after, "after", 0, "only records after this sequence")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(dsn) == "" {
		return fail(stderr, errors.New("--dsn is required"))
	}
	filter := audit.Filter{Type: strings.TrimSpace(eventType), After: after}
	if strings.TrimSpace(subject) != "" {
		id, err := crypto.ParseIdentity(subject)
		if err != nil {
			return fail(stderr, fmt.Errorf("--subject: %w", err))
		}
		filter.Subject = crypto.FromIdentity(id).String()
	}
	journal, err := audit.Open(dsn)
	if err != nil {
		return fail(stderr, err)
	}
	defer journal.Close()
	written, err := journal.ExportParquet(context.Background(), out, filter)
	if err != nil {
		return fail(stderr, err)
	}
	return writeJSON(stdout, map[string]interface{}{"records": written, "out": out})
}
