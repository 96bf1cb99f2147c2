package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/greenroute/greenroute/internal/api/models"
	"github.com/greenroute/greenroute/internal/auth"
)

type userIDKey struct{}

// TokenValidator resolves a bearer token to the user ID it was issued to.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

var (
	errNoAuthorization = errors.New("missing authorization header")
	errNotBearer       = errors.New("invalid authorization header format")
	errEmptyToken      = errors.New("missing bearer token")
)

// Auth rejects requests without a valid guest session token and stores the
// session's user ID in the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				unauthorized(w, r, err.Error(), err != errNoAuthorization)
				return
			}

			userID, err := validator.ValidateAccessToken(token)
			if err != nil {
				unauthorized(w, r, tokenFailure(err), true)
				return
			}

			if info := GetRequestInfo(r.Context()); info != nil {
				info.UserID = userID
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
		})
	}
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	if token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccessTokenExpired):
		return "access token has expired"
	case errors.Is(err, auth.ErrInvalidAccessToken):
		return "invalid access token"
	default:
		return "authentication failed"
	}
}

// unauthorized writes a 401 Problem with a Bearer challenge.
func unauthorized(w http.ResponseWriter, r *http.Request, detail string, invalidToken bool) {
	challenge := `Bearer realm="greenroute"`
	if invalidToken {
		challenge += `, error="invalid_token"`
	}
	w.Header().Set("WWW-Authenticate", challenge)

	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetUserID returns the authenticated user ID, or "" outside Auth.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
