package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"bookexchange/internal/httpx"
)

var (
	// ErrUnauthorized is returned when the presented client id is not the configured one.
	ErrUnauthorized = errors.New("invalid client credentials")
	// ErrUnauthenticated is returned when no token was presented.
	ErrUnauthenticated = fmt.Errorf("auth: %w", httpx.ErrMissingToken)
	// ErrForbidden is returned when a token fails signature or expiry checks.
	ErrForbidden = fmt.Errorf("auth: %w", httpx.ErrInvalidToken)
)

// Token is the credential handed to a client.
type Token struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// Service issues and verifies bearer tokens for the single configured client.
type Service struct {
	secret   string
	clientID string
	ttl      time.Duration
}

func NewService(secret, clientID string, ttl time.Duration) *Service {
	return &Service{secret: secret, clientID: clientID, ttl: ttl}
}

// IssueToken signs a token for clientID when it matches the configured client.
func (s *Service) IssueToken(ctx context.Context, clientID string) (Token, error) {
	if subtle.ConstantTimeCompare([]byte(clientID), []byte(s.clientID)) != 1 {
		return Token{}, ErrUnauthorized
	}

	token, _, err := GenerateToken(s.secret, clientID, s.ttl)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Token: token, ExpiresIn: int(s.ttl.Seconds())}, nil
}

// VerifyToken returns the identity embedded in token.
func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	return claims.Subject, nil
}
