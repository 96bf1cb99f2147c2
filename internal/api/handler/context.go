package handler

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/api/middleware"
	"github.com/greenroute/greenroute/internal/api/response"
)

// requireUser returns the authenticated user for a /me handler. It writes a
// 401 and reports false when the route was mounted without Auth.
func requireUser(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		log.Warn().
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("user endpoint reached without authentication")
		response.Unauthorized(w, r, "authentication required")
		return "", false
	}
	return userID, true
}

// internalDetail is the 500 detail shown to clients. The underlying error is
// only exposed in development.
func internalDetail(msg string, err error, verbose bool) string {
	if verbose && err != nil {
		return fmt.Sprintf("%s: %v", msg, err)
	}
	return msg
}
