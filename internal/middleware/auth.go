package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/finance-ledger/internal/auth"
	"github.com/josh-kwaku/finance-ledger/internal/handler"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

// Auth resolves the bearer token to an owner id. Handlers below it read the
// owner with auth.OwnerFromContext.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(strings.TrimSpace(token), secret)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithOwner(r.Context(), claims.OwnerID)
			ctx = logging.With(ctx, "owner_id", claims.OwnerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
