// Package auth issues and verifies bearer tokens and hashes passwords.
// Tokens are HMAC-SHA256 signed "userID:expiry" pairs; there is no
// server-side session state.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token verification failures.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Signer issues and verifies tokens with a shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner creates a signer. ttl bounds how long issued tokens verify.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token for the user, valid for the signer's ttl.
func (s *Signer) Sign(userID string) string {
	expiry := time.Now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s:%d", userID, expiry)
	sig := s.signature(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + sig))
}

// Verify checks a token and returns the user id it was issued for.
func (s *Signer) Verify(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}
	userID, expiryStr, sig := parts[0], parts[1], parts[2]

	payload := userID + ":" + expiryStr
	if !hmac.Equal([]byte(sig), []byte(s.signature(payload))) {
		return "", ErrInvalidToken
	}

	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if time.Now().Unix() > expiry {
		return "", ErrExpiredToken
	}

	return userID, nil
}

func (s *Signer) signature(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewSalt returns a fresh random password salt.
func NewSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword returns the salted SHA-256 digest of a password.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword reports whether the password matches the stored digest.
func CheckPassword(password, salt, hash string) bool {
	return hmac.Equal([]byte(HashPassword(password, salt)), []byte(hash))
}
