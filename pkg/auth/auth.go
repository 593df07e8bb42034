// Package auth verifies OIDC bearer tokens and carries the caller's identity
// through the request context.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/verdant/pkg/handlers"
)

// Identity is the verified caller.
type Identity struct {
	Subject string
	// Authorization is the raw header value, forwarded to downstream services.
	Authorization string
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// System verifies bearer tokens.
type System interface {
	// Verify checks an Authorization header value and returns the identity.
	Verify(ctx context.Context, header string) (Identity, error)
	// Middleware rejects unauthenticated requests with 401 and stores the
	// identity of authenticated ones in the request context.
	Middleware() func(http.Handler) http.Handler
}

type verifier struct {
	mu       sync.Mutex
	oidc     *oidc.IDTokenVerifier
	discover func(ctx context.Context) (*oidc.IDTokenVerifier, error)
	logger   *slog.Logger
}

// New creates a System for cfg. With cfg.JWKSURL set, signing keys are
// fetched from it on demand. Otherwise the issuer's discovery document is
// read on the first verification and its jwks_uri is used.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) System {
	if cfg.JWKSURL != "" {
		return NewWithKeySet(cfg, oidc.NewRemoteKeySet(ctx, cfg.JWKSURL), logger)
	}

	return &verifier{
		discover: func(ctx context.Context) (*oidc.IDTokenVerifier, error) {
			provider, err := oidc.NewProvider(ctx, cfg.Issuer)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
			}
			return provider.Verifier(verifierConfig(cfg)), nil
		},
		logger: logger.With("system", "auth"),
	}
}

// NewWithKeySet creates a System backed by an explicit key set.
func NewWithKeySet(cfg *Config, keys oidc.KeySet, logger *slog.Logger) System {
	return &verifier{
		oidc:   oidc.NewVerifier(cfg.Issuer, keys, verifierConfig(cfg)),
		logger: logger.With("system", "auth"),
	}
}

func verifierConfig(cfg *Config) *oidc.Config {
	return &oidc.Config{
		ClientID:             cfg.Audience,
		SkipClientIDCheck:    cfg.Audience == "",
		SkipExpiryCheck:      cfg.SkipExpiry,
		SupportedSigningAlgs: cfg.Algorithms,
	}
}

// tokenVerifier returns the resolved verifier. A failed discovery is not
// cached, so the next request retries it.
func (v *verifier) tokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.oidc != nil {
		return v.oidc, nil
	}

	tv, err := v.discover(ctx)
	if err != nil {
		return nil, err
	}
	v.oidc = tv
	return tv, nil
}

func (v *verifier) Verify(ctx context.Context, header string) (Identity, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return Identity{}, ErrMissingToken
	}

	tv, err := v.tokenVerifier(ctx)
	if err != nil {
		v.logger.ErrorContext(ctx, "issuer discovery failed", "error", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	token, err := tv.Verify(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if token.Subject == "" {
		return Identity{}, ErrMissingSubject
	}

	return Identity{
		Subject:       token.Subject,
		Authorization: header,
	}, nil
}

func (v *verifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			id, err := v.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				v.logger.Debug("request rejected", "uri", r.URL.RequestURI(), "error", err)
				handlers.RespondError(w, v.logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
