package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	clientIDKey  contextKey = "clientID"
	requestIDKey contextKey = "requestID"
)

// ClientIDFrom retrieves the authenticated client identity from the request context.
func ClientIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(clientIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithClientID returns a new context carrying the client identity.
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
