// Package httpmeta propagates request metadata across the HTTP service
// boundaries: a middleware stores the inbound request id in the
// context, and a RoundTripper copies it onto every outbound
// collaborator call.
package httpmeta

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// contextKey is an unexported type for context keys in this package.
// A custom type prevents collisions with keys from other packages that
// might use the same underlying string value.
type contextKey string

const (
	// HeaderRequestID carries the request id between services.
	HeaderRequestID = "X-Request-Id"

	// HeaderReservationRef tags a stock reduction with the placement
	// attempt that caused it.
	HeaderReservationRef = "X-Reservation-Ref"

	contextKeyRequestID contextKey = "request_id"
)

// Attach is an HTTP middleware that stores the request id (minted by
// chi's RequestID middleware, or supplied by the caller) in the request
// context under this package's key.
func Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request id stored by Attach, or "" if none.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// Transport is an http.RoundTripper that copies the context request id
// onto outbound requests. Wrap it with otelhttp.NewTransport so both
// the request id and the W3C trace headers travel together.
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if id := RequestID(req.Context()); id != "" && req.Header.Get(HeaderRequestID) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(HeaderRequestID, id)
	}

	return base.RoundTrip(req)
}
