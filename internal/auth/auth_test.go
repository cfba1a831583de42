package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator("test-secret", "test-app", time.Hour)
	require.NoError(t, err)
	return a
}

func TestSignInAnonymous(t *testing.T) {
	a := newTestAuthenticator(t)

	id, err := a.SignIn(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, id.Anonymous)
	assert.NotEmpty(t, id.UserID)
	assert.NotEmpty(t, id.Token)

	// Выпущенный токен должен приниматься повторно
	again, err := a.SignIn(context.Background(), id.Token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, again.UserID)
	assert.True(t, again.Anonymous)

	// срок действия совпадает с записанным в токене
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, time.Minute)
	assert.True(t, id.ExpiresAt.Equal(again.ExpiresAt))
}

func TestSignInWithPresuppliedToken(t *testing.T) {
	a := newTestAuthenticator(t)

	token, err := a.Mint(Identity{UserID: "user-42"})
	require.NoError(t, err)

	id, err := a.SignIn(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.UserID)
	assert.False(t, id.Anonymous)
	assert.Equal(t, token, id.Token)
}

func TestSignInRejectsBadTokens(t *testing.T) {
	a := newTestAuthenticator(t)

	other, err := NewAuthenticator("test-secret", "another-app", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Mint(Identity{UserID: "user-1"})
	require.NoError(t, err)

	expiredAuth := newTestAuthenticator(t)
	expiredAuth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredAuth.Mint(Identity{UserID: "user-1"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "signed for another app", token: foreign},
		{name: "expired", token: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.SignIn(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSignInCanceledContext(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.SignIn(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	_, err := NewAuthenticator("", "app", time.Hour)
	assert.Error(t, err)
}
