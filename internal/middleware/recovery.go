package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"inkwell/internal/httputil"
)

// Recovery converts handler panics into problem responses so one bad request
// cannot take the server down.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logger.Error("handler panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"error", fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
				)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
