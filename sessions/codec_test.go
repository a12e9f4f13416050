package sessions_test

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timmelander/oidc-session-gateway/sessions"
)

var testPepper = []byte("0123456789abcdef0123456789abcdef")

func testRecord(t *testing.T) sessions.Record {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	return sessions.Record{
		Sub:               "user-123",
		Email:             "jane@example.com",
		Name:              "Jane Doe",
		PreferredUsername: "jdoe",
		GivenName:         "Jane",
		FamilyName:        "Doe",
		Groups:            []string{"engineering", "admins"},
		UAHash:            sessions.HashUserAgent("Mozilla/5.0"),
		Exp:               now.Add(8 * time.Hour),
		Iat:               now,
		IDToken:           "eyJhbGciOiJub25lIn0.e30.",
		RawClaims:         []string{"aud", "exp", "iat", "iss", "sub"},
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	record := testRecord(t)

	envelope, err := sessions.Seal(record, "session-abc", testPepper)
	require.NoError(t, err)

	opened, err := sessions.Open(envelope, "session-abc", testPepper)
	require.NoError(t, err)
	require.Equal(t, record.Sub, opened.Sub)
	require.Equal(t, record.Email, opened.Email)
	require.Equal(t, record.Groups, opened.Groups)
	require.Equal(t, record.UAHash, opened.UAHash)
	require.Equal(t, record.IDToken, opened.IDToken)
	require.Equal(t, record.RawClaims, opened.RawClaims)
	require.True(t, record.Exp.Equal(opened.Exp))
	require.True(t, record.Iat.Equal(opened.Iat))
}

func TestSealProducesFreshNonce(t *testing.T) {
	record := testRecord(t)

	first, err := sessions.Seal(record, "session-abc", testPepper)
	require.NoError(t, err)
	second, err := sessions.Seal(record, "session-abc", testPepper)
	require.NoError(t, err)

	require.NotEqual(t, first[:12], second[:12])
	require.NotEqual(t, first, second)
}

func TestOpenDetectsTampering(t *testing.T) {
	record := testRecord(t)
	envelope, err := sessions.Seal(record, "session-abc", testPepper)
	require.NoError(t, err)

	// Flip one bit at a few positions across nonce, ciphertext, and tag.
	for _, position := range []int{0, 11, 12, len(envelope) / 2, len(envelope) - 1} {
		t.Run("bit flip", func(t *testing.T) {
			tampered := make([]byte, len(envelope))
			copy(tampered, envelope)
			tampered[position] ^= 0x01

			_, err := sessions.Open(tampered, "session-abc", testPepper)
			require.ErrorIs(t, err, sessions.ErrIntegrity)
		})
	}
}

func TestOpenRejectsWrongSessionID(t *testing.T) {
	envelope, err := sessions.Seal(testRecord(t), "session-abc", testPepper)
	require.NoError(t, err)

	_, err = sessions.Open(envelope, "session-xyz", testPepper)
	require.ErrorIs(t, err, sessions.ErrIntegrity)
}

func TestOpenRejectsWrongPepper(t *testing.T) {
	envelope, err := sessions.Seal(testRecord(t), "session-abc", testPepper)
	require.NoError(t, err)

	_, err = sessions.Open(envelope, "session-abc", []byte("another-pepper-value-entirely!!!"))
	require.ErrorIs(t, err, sessions.ErrIntegrity)
}

func TestOpenRejectsTruncatedEnvelope(t *testing.T) {
	_, err := sessions.Open([]byte("short"), "session-abc", testPepper)
	require.ErrorIs(t, err, sessions.ErrIntegrity)
}

func TestOpenRejectsNonJSONPayload(t *testing.T) {
	// A well-formed envelope whose plaintext is not a session record.
	key, err := sessions.DeriveKey("session-abc", testPepper)
	require.NoError(t, err)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	nonce := make([]byte, 12)
	envelope := aead.Seal(nonce, nonce, []byte("not json"), nil)

	_, err = sessions.Open(envelope, "session-abc", testPepper)
	require.ErrorIs(t, err, sessions.ErrFormat)
}

func TestDeriveKeyIndependence(t *testing.T) {
	keyA, err := sessions.DeriveKey("session-a", testPepper)
	require.NoError(t, err)
	keyB, err := sessions.DeriveKey("session-b", testPepper)
	require.NoError(t, err)
	keyA2, err := sessions.DeriveKey("session-a", testPepper)
	require.NoError(t, err)

	require.Len(t, keyA, 32)
	require.NotEqual(t, keyA, keyB)
	require.Equal(t, keyA, keyA2)
}

func TestDeriveKeyDependsOnPepper(t *testing.T) {
	keyA, err := sessions.DeriveKey("session-a", testPepper)
	require.NoError(t, err)
	keyB, err := sessions.DeriveKey("session-a", []byte("another-pepper-value-entirely!!!"))
	require.NoError(t, err)

	require.NotEqual(t, keyA, keyB)
}
