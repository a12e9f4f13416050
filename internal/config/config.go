package config

type Config interface {
	EnvConfig
	OIDCConfig
	CookieConfig
	CacheConfig
	SecretsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	OIDC
	Cookies
	Cache
	Secrets
}

func New() Config {
	return mainConfig{}
}
