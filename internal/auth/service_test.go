package auth

import (
	"context"
	"testing"
	"time"

	"bookexchange/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_IssueToken(t *testing.T) {
	svc := NewService("secret", "exchange-web", time.Hour)
	ctx := context.Background()

	t.Run("matching client", func(t *testing.T) {
		tok, err := svc.IssueToken(ctx, "exchange-web")
		require.NoError(t, err)
		assert.NotEmpty(t, tok.Token)
		assert.Equal(t, 3600, tok.ExpiresIn)

		id, err := svc.VerifyToken(ctx, tok.Token)
		require.NoError(t, err)
		assert.Equal(t, "exchange-web", id)
	})

	t.Run("wrong client", func(t *testing.T) {
		_, err := svc.IssueToken(ctx, "intruder")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("prefix of client", func(t *testing.T) {
		_, err := svc.IssueToken(ctx, "exchange")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestService_VerifyToken(t *testing.T) {
	svc := NewService("secret", "exchange-web", time.Hour)
	ctx := context.Background()

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.VerifyToken(ctx, "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.ErrorIs(t, err, httpx.ErrMissingToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, _, err := GenerateToken("secret", "exchange-web", -time.Second)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, expired)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, err, httpx.ErrInvalidToken)
	})

	t.Run("foreign secret", func(t *testing.T) {
		other, _, err := GenerateToken("other", "exchange-web", time.Hour)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, other)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
