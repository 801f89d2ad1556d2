package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	token := signer.Sign("u-alice")
	userID, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-alice", userID)
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	other := NewSigner("other-secret", time.Hour)

	token := signer.Sign("u-alice")

	_, err := other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = signer.Verify(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken, "mangled token")

	_, err = signer.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer := NewSigner("test-secret", -time.Minute)

	token := signer.Sign("u-alice")
	_, err := signer.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasswordHashing(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.NotEmpty(t, salt)

	hash := HashPassword("hunter2", salt)
	assert.True(t, CheckPassword("hunter2", salt, hash))
	assert.False(t, CheckPassword("hunter3", salt, hash))

	otherSalt, err := NewSalt()
	require.NoError(t, err)
	assert.NotEqual(t, hash, HashPassword("hunter2", otherSalt), "salt changes digest")
}
