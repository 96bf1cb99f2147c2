// Package middleware provides HTTP middleware for the GreenRoute API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// maxRequestIDLength caps client-supplied X-Request-Id values.
const maxRequestIDLength = 64

// requestInfoKey is the context key for the per-request RequestInfo.
type requestInfoKey struct{}

// RequestInfo is shared by every middleware handling one request. Inner
// middleware fill it in so outer ones (the request logger) can report it.
type RequestInfo struct {
	ID     string
	UserID string
	// RateLimit names the limit class that rejected the request, if any.
	RateLimit string
}

// RequestID assigns a request ID, accepting a well-formed X-Request-Id from
// the client, and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if !validRequestID(requestID) {
			requestID = "req_" + uuid.New().String()[:22]
		}

		w.Header().Set("X-Request-Id", requestID)

		info := &RequestInfo{ID: requestID}
		ctx := context.WithValue(r.Context(), requestInfoKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}

// GetRequestInfo returns the RequestInfo for ctx, or nil outside RequestID.
func GetRequestInfo(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if info := GetRequestInfo(ctx); info != nil {
		return info.ID
	}
	return ""
}
