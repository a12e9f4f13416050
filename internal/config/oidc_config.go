package config

import (
	"strconv"
	"time"
)

type OIDCConfig interface {
	GetIssuerBaseURL() string
	GetRedirectURI() string
	GetStateTTL() time.Duration
	GetSessionTTL() time.Duration
	GetDefaultReturnTo() string
	GetPostLogoutRedirectURI() string
}

type OIDC struct{}

var _ OIDCConfig = OIDC{}

// GetIssuerBaseURL returns the identity provider's base URL, e.g.
// "https://idcs-xxxx.identity.oraclecloud.com". The discovery document and
// the authorization endpoint are resolved relative to it.
func (OIDC) GetIssuerBaseURL() string {
	return GetEnv("IDP_BASE_URL", "")
}

func (OIDC) GetRedirectURI() string {
	return GetEnv("OIDC_REDIRECT_URI", "")
}

func (OIDC) GetStateTTL() time.Duration {
	return durationSecondsEnv("STATE_TTL_SECONDS", 300)
}

func (OIDC) GetSessionTTL() time.Duration {
	return durationSecondsEnv("SESSION_TTL_SECONDS", 28800) // 8 hours
}

func (OIDC) GetDefaultReturnTo() string {
	return GetEnv("DEFAULT_RETURN_TO", "/")
}

func (OIDC) GetPostLogoutRedirectURI() string {
	return GetEnv("POST_LOGOUT_REDIRECT_URI", "/")
}

func durationSecondsEnv(envVar string, defaultSeconds int) time.Duration {
	seconds, err := strconv.Atoi(GetEnv(envVar, strconv.Itoa(defaultSeconds)))
	if err != nil || seconds <= 0 {
		seconds = defaultSeconds
	}
	return time.Duration(seconds) * time.Second
}
