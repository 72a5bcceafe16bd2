package middleware

import (
	"net/http"
	"runtime/debug"

	"vet-clinic/internal/platform/httpx"
	"vet-clinic/internal/platform/logger"
)

// Recover convierte un panic en 500 con el sobre JSON y loguea el stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error("panic recovered", map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"panic":  rec,
				"stack":  string(debug.Stack()),
			})
			httpx.Fail(w, http.StatusInternalServerError, httpx.MsgInternal)
		}()

		next.ServeHTTP(w, r)
	})
}
