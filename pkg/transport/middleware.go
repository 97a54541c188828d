package transport

import (
	"context"
	"crypto/subtle"
)

type requestIDKey struct{}

// withRequestID attaches a request id to ctx for log correlation, generalized
// from the reference stack's HTTP request-ID middleware to a frame-handler
// chain.
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id attached by the transport, or
// "" if none is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// isValidKey reports whether token matches any of validKeys, comparing in
// constant time the same way the reference stack's auth middleware does.
func isValidKey(token string, validKeys []string) bool {
	if token == "" {
		return false
	}

	for _, key := range validKeys {
		if key == "" {
			continue
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 {
			return true
		}
	}

	return false
}
