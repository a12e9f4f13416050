// Package secrets resolves long-lived deployment secrets (OAuth2 client
// credentials and the session encryption pepper) from a secret store behind
// an opaque reference. The store itself is an external collaborator; the
// env-backed provider stands in for it.
package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// Provider resolves a secret value from an opaque reference.
type Provider interface {
	GetSecret(ctx context.Context, ref string) (string, error)
}

// ClientCredentials holds the confidential OAuth2 client identity.
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// EnvProvider resolves secret references as environment variable names.
type EnvProvider struct{}

var _ Provider = EnvProvider{}

func (EnvProvider) GetSecret(_ context.Context, ref string) (string, error) {
	value := os.Getenv(ref)
	if value == "" {
		return "", fmt.Errorf("[EnvProvider GetSecret] secret %q not set", ref)
	}
	return value, nil
}

// GetClientCredentials resolves and decodes the client-credentials secret,
// stored as a JSON document {"client_id": ..., "client_secret": ...}.
func GetClientCredentials(ctx context.Context, p Provider, ref string) (ClientCredentials, error) {
	raw, err := p.GetSecret(ctx, ref)
	if err != nil {
		return ClientCredentials{}, err
	}
	var creds ClientCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return ClientCredentials{}, fmt.Errorf("[GetClientCredentials] malformed credentials secret: %w", err)
	}
	if creds.ClientID == "" {
		return ClientCredentials{}, fmt.Errorf("[GetClientCredentials] credentials secret has no client_id")
	}
	return creds, nil
}

// GetPepper resolves and decodes the base64-encoded session encryption pepper.
func GetPepper(ctx context.Context, p Provider, ref string) ([]byte, error) {
	raw, err := p.GetSecret(ctx, ref)
	if err != nil {
		return nil, err
	}
	pepper, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("[GetPepper] pepper is not valid base64: %w", err)
	}
	if len(pepper) == 0 {
		return nil, fmt.Errorf("[GetPepper] pepper is empty")
	}
	return pepper, nil
}
