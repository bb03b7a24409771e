package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)

	token, err := svc.CreateForPrincipal("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := svc.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)
	other := security.NewTokenService("other-secret", time.Hour)

	token, err := svc.CreateForPrincipal("alice")
	require.NoError(t, err)

	_, err = other.Subject(token)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	svc := security.NewTokenService("test-secret", -time.Minute)

	token, err := svc.CreateForPrincipal("alice")
	require.NoError(t, err)

	_, err = svc.Subject(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour)

	_, err := svc.Subject("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashAndVerify(t *testing.T) {
	hasher := security.NewPasswordHasher(0)

	hashed, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hashed)

	assert.NoError(t, hasher.Verify("password123", hashed))
	assert.Error(t, hasher.Verify("wrong-password", hashed))
}
