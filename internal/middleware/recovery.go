package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/finance-ledger/internal/handler"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

// Recovery turns a panic in a handler into a 500 envelope. A panic inside a
// service unit has already rolled its transaction back by the time it
// reaches here.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.FromContext(r.Context()).Error("panic recovered",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", RequestIDFromContext(r.Context()),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			handler.RespondAppError(w, handler.ErrInternalError, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
