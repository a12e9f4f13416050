package config

type CookieConfig interface {
	GetSessionCookieName() string
	GetCookieDomain() string
}

type Cookies struct{}

var _ CookieConfig = Cookies{}

func (Cookies) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "session_id")
}

// GetCookieDomain returns the optional Domain attribute for the session
// cookie. Empty means host-only.
func (Cookies) GetCookieDomain() string {
	return GetEnv("COOKIE_DOMAIN", "")
}
