package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
)

// OwnerHeader carries the caller's owner id when token auth is disabled.
const OwnerHeader = "X-Owner-ID"

// TokenVerifier turns a bearer token into the caller it identifies.
type TokenVerifier interface {
	Verify(token string) (*domain.Principal, error)
}

// Authenticator attaches a domain.Principal to every request.
type Authenticator struct {
	verifier TokenVerifier
	metrics  *metrics.Metrics
}

// NewAuthenticator creates an authentication middleware. With a nil
// verifier the owner is trusted from the X-Owner-ID header, which is only
// suitable behind a gateway that sets it.
func NewAuthenticator(verifier TokenVerifier, m *metrics.Metrics) *Authenticator {
	return &Authenticator{verifier: verifier, metrics: m}
}

// Wrap rejects requests without a valid identity.
func (a *Authenticator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, reason := a.authenticate(r)
		if principal == nil {
			if a.metrics != nil {
				a.metrics.AuthFailures.WithLabelValues(reason).Inc()
			}
			writeError(w, http.StatusUnauthorized, reason)
			return
		}

		ctx := domain.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*domain.Principal, string) {
	if a.verifier == nil {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			return nil, "missing owner"
		}
		return &domain.Principal{OwnerID: owner, Role: domain.RoleOwner}, ""
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, "missing authorization header"
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, "invalid authorization header format"
	}

	principal, err := a.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, domain.ErrExpiredToken) {
			return nil, "expired token"
		}
		return nil, "invalid token"
	}

	return principal, ""
}

// RequireWrite rejects callers whose role may not mutate accounts.
func RequireWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := domain.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			return
		}

		if !principal.Role.CanWrite() {
			writeError(w, http.StatusForbidden, domain.ErrInsufficientRole.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
