package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/api/models"
)

// Recovery returns a middleware that turns a handler panic into a 500
// Problem. When verbose is set the panic value is included in the detail.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(log zerolog.Logger, verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				requestID := GetRequestID(r.Context())
				event := log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rvr).
					Bytes("stack", debug.Stack())
				if userID := GetUserID(r.Context()); userID != "" {
					event = event.Str("user_id", userID)
				}
				event.Msg("panic recovered")

				// A partial response cannot be replaced.
				if rec, ok := w.(*statusRecorder); ok && rec.wroteHeader {
					return
				}

				detail := "an unexpected error occurred"
				if verbose {
					detail = fmt.Sprintf("%s: %v", detail, rvr)
				}

				problem := models.NewInternalError(requestID, detail)
				problem.Instance = r.URL.Path
				problem.Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
