package sessions

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Envelope layout: nonce(12) || ciphertext+tag, produced by AES-256-GCM under
// a key derived per session. Possession of the session id alone is not enough
// to read or forge an envelope; the deployment pepper is also required.
const (
	keySize   = 32
	nonceSize = 12

	// keyContext is the fixed, versioned HKDF info string. Changing it
	// invalidates every stored session.
	keyContext = "session_encryption"
)

var (
	// ErrIntegrity means the envelope failed authenticated decryption:
	// tampering, wrong key, or corruption.
	ErrIntegrity = errors.New("session envelope failed integrity check")
	// ErrFormat means the decrypted payload is not a valid session record.
	ErrFormat = errors.New("session payload is malformed")
)

// DeriveKey derives the 256-bit session key from the session id (input key
// material) and the deployment pepper (salt). The same (session id, pepper)
// pair always yields the same key; different session ids yield independent
// keys, so one compromised session key exposes no other session.
func DeriveKey(sessionID string, pepper []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, []byte(sessionID), pepper, []byte(keyContext))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal serializes the record and encrypts it under the key derived for
// sessionID, returning nonce || ciphertext+tag.
func Seal(record Record, sessionID string, pepper []byte) ([]byte, error) {
	key, err := DeriveKey(sessionID, pepper)
	if err != nil {
		return nil, err
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open splits, decrypts, and deserializes an envelope produced by Seal.
func Open(envelope []byte, sessionID string, pepper []byte) (Record, error) {
	if len(envelope) <= nonceSize {
		return Record{}, ErrIntegrity
	}

	key, err := DeriveKey(sessionID, pepper)
	if err != nil {
		return Record{}, err
	}
	aead, err := newAEAD(key)
	if err != nil {
		return Record{}, err
	}

	nonce, ciphertext := envelope[:nonceSize], envelope[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Record{}, ErrIntegrity
	}

	var record Record
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return Record{}, ErrFormat
	}
	return record, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
