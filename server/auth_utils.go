package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// generateRandomString creates a random base64url string with length bytes of
// entropy. State, nonce, PKCE verifier, and session ids all use 32 bytes.
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// generateCodeChallenge creates a PKCE S256 code challenge from a verifier
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
