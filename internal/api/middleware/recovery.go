package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/kiranshivaraju/replysim/internal/api/response"
)

// Recovery turns a handler panic into a 500 error envelope. The request ID is
// logged with the stack and echoed in the error details so a client report can
// be matched to the log line. http.ErrAbortHandler is re-raised untouched.
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

			requestID, _ := GetRequestID(r)
			slog.ErrorContext(r.Context(), "handler panic",
				"request_id", requestID,
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			var details any
			if requestID != "" {
				details = map[string]string{"request_id": requestID}
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", details)
		}()
		next.ServeHTTP(w, r)
	})
}
