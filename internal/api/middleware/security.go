package middleware

import (
	"net/http"
	"strings"

	"github.com/greenroute/greenroute/internal/api/models"
)

// securityHeaders are set on every response. The API serves JSON only, so
// the content security policy forbids everything.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), camera=(), microphone=()"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
}

// SecurityHeaders adds the standard security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// probePaths are served over plain HTTP so load balancer health checks,
// which do not terminate TLS, keep working when RequireTLS is on.
var probePaths = []string{"/api/ops/health", "/api/ops/ready"}

// RequireTLS returns middleware that rejects plain HTTP when enabled. It
// trusts X-Forwarded-Proto from the load balancer; requests without the
// header are direct connections and pass through.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proto := r.Header.Get("X-Forwarded-Proto")
			if proto == "" || strings.EqualFold(proto, "https") || isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			problem := models.NewProblem(
				models.ProblemTypeTLSRequired,
				"TLS required",
				http.StatusForbidden,
				GetRequestID(r.Context()),
			)
			problem.Detail = "This endpoint requires HTTPS"
			problem.Instance = r.URL.Path
			problem.Write(w)
		})
	}
}

func isProbe(path string) bool {
	for _, p := range probePaths {
		if path == p {
			return true
		}
	}
	return false
}
