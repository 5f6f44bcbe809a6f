package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"reservevault/crypto"
)

// HeaderCallerIdentity names the caller when authentication is disabled.
// Only devnets run that way.
const HeaderCallerIdentity = "X-Caller-Identity"

type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

type contextKey string

const (
	ContextKeyIdentity contextKey = "gateway.identity"
)

// Authenticator resolves the caller identity of a request from an HS256
// bearer token whose subject is the identity.
type Authenticator struct {
	cfg    AuthConfig
	logger *log.Logger
	secret []byte
}

func NewAuthenticator(cfg AuthConfig, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		logger: logger,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
	}
}

// Middleware rejects requests without a resolvable caller identity.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.resolve(r)
			if err != nil {
				a.logger.Printf("auth: %v", err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) resolve(r *http.Request) ([20]byte, error) {
	if !a.cfg.Enabled {
		return crypto.ParseIdentity(r.Header.Get(HeaderCallerIdentity))
	}
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return [20]byte{}, errors.New("missing bearer token")
	}
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return [20]byte{}, err
	}
	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return [20]byte{}, errors.New("token subject missing")
	}
	identity, err := crypto.ParseIdentity(subject)
	if err != nil {
		return [20]byte{}, err
	}
	if identity == ([20]byte{}) {
		return [20]byte{}, errors.New("token subject is the zero identity")
	}
	return identity, nil
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

// IdentityFromContext returns the authenticated caller.
func IdentityFromContext(ctx context.Context) ([20]byte, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).([20]byte)
	return identity, ok
}

// IssueToken mints a bearer token for identity valid for ttl.
func IssueToken(secret string, identity [20]byte, issuer, audience string, ttl time.Duration, now time.Time) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("auth secret required")
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	claims := jwt.RegisteredClaims{
		Subject:   crypto.FromIdentity(identity).String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if issuer != "" {
		claims.Issuer = issuer
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
