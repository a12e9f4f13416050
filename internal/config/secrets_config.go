package config

type SecretsConfig interface {
	GetClientCredentialsRef() string
	GetPepperRef() string
}

type Secrets struct{}

var _ SecretsConfig = Secrets{}

// GetClientCredentialsRef returns the opaque secret-store reference for the
// OAuth2 client credentials (a JSON document with client_id/client_secret).
func (Secrets) GetClientCredentialsRef() string {
	return GetEnv("CLIENT_CREDENTIALS_SECRET_REF", "OIDC_CLIENT_CREDENTIALS")
}

// GetPepperRef returns the opaque secret-store reference for the
// base64-encoded session encryption pepper.
func (Secrets) GetPepperRef() string {
	return GetEnv("SESSION_PEPPER_SECRET_REF", "SESSION_PEPPER")
}
