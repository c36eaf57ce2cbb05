package middleware

import (
	"net/http"
	"time"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// Idempotency rejects a repeated mutation carrying a key that has already
// been accepted. The key is optional; requests without one pass through.
func Idempotency(store redis.IdempotencyStore, scope string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			stored, err := store.SetNX(r.Context(), store.IdempotencyKey(scope, key), "1", idempotencyTTL)
			if err != nil {
				responses.WriteError(r.Context(), w, logg,
					apperrors.Wrap(apperrors.CodeDependency, err, "checking idempotency key"))
				return
			}
			if !stored {
				responses.WriteError(r.Context(), w, logg,
					apperrors.New(apperrors.CodeIdempotency, "request with this idempotency key was already accepted"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
