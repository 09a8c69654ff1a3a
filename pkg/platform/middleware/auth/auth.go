// Package auth attaches verified credentials to the request context.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"lifeline/internal/token"
	"lifeline/pkg/requestcontext"
)

// CookieName is the fallback credential carrier for browser clients.
const CookieName = "token"

// Verifier checks a raw credential and returns its claims.
type Verifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// RevocationChecker reports whether a token ID was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// credential reads the bearer header, falling back to the cookie. The second
// result is false when the request carries no credential at all.
func credential(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		raw, _ := strings.CutPrefix(header, "Bearer ")
		return strings.TrimSpace(raw), true
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// Authenticate verifies a presented credential and stores its claims in the
// context. A credential that fails verification or has been revoked is
// dropped and the request continues anonymously; the policy gate answers 401
// wherever a rule needs a caller.
func Authenticate(verifier Verifier, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, present := credential(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(raw)
			if err != nil {
				logger.WarnContext(ctx, "ignoring invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !usable(ctx, revocations, claims, logger) {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(token.WithClaims(ctx, claims)))
		})
	}
}

// usable reports whether claims may be attached. When the revocation list
// cannot be read the token is not trusted.
func usable(ctx context.Context, revocations RevocationChecker, claims *token.Claims, logger *slog.Logger) bool {
	if revocations == nil || claims.ID == "" {
		return true
	}
	revoked, err := revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check token revocation",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return false
	}
	if revoked {
		logger.WarnContext(ctx, "ignoring revoked token",
			"jti", claims.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return false
	}
	return true
}
