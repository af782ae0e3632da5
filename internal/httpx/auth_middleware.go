package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrMissingToken means the request carried no bearer credential.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken means the credential failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenVerifier resolves a bearer token to the identity it was issued for.
// Implementations return ErrMissingToken or ErrInvalidToken (possibly wrapped).
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware rejects requests without a token with 401 and requests with
// a bad or expired token with 403.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				JSONError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Access token is missing", nil)
				return
			}

			clientID, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrMissingToken) {
					JSONError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Access token is missing", nil)
					return
				}
				JSONError(w, r, http.StatusForbidden, CodeForbidden, "Invalid or expired token", nil)
				return
			}

			setClientID(w, clientID)
			ctx := ContextWithClientID(r.Context(), clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
