package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth/session"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

type identityKey struct{}

// Auth validates the bearer token and, when a session manager is wired,
// checks the token's session has not been revoked.
func Auth(tokens *auth.TokenManager, sessions *session.Manager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				responses.WriteError(r.Context(), w, logg,
					apperrors.New(apperrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			payload, err := tokens.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), w, logg,
					apperrors.New(apperrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			if sessions != nil && payload.AccessID != "" {
				alive, err := sessions.HasSession(r.Context(), payload.AccessID)
				if err != nil {
					responses.WriteError(r.Context(), w, logg,
						apperrors.Wrap(apperrors.CodeDependency, err, "checking session"))
					return
				}
				if !alive {
					responses.WriteError(r.Context(), w, logg,
						apperrors.New(apperrors.CodeUnauthorized, "session revoked"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), identityKey{}, payload)
			ctx = logg.WithUserID(ctx, payload.UserID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree to the given roles. It must run after Auth.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	allowed := map[enums.UserRole]struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := IdentityFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), w, logg,
					apperrors.New(apperrors.CodeUnauthorized, "authentication required"))
				return
			}
			if _, ok := allowed[payload.Role]; !ok {
				responses.WriteError(r.Context(), w, logg,
					apperrors.New(apperrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the authenticated identity set by Auth.
func IdentityFromContext(ctx context.Context) (auth.AccessTokenPayload, bool) {
	payload, ok := ctx.Value(identityKey{}).(auth.AccessTokenPayload)
	return payload, ok
}
