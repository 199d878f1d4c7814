package config

type Config interface {
	EnvConfig
	APIConfig
	OAuthConfig
	PollingConfig
}

type mainConfig struct {
	EnvVars
	API
	OAuth
	Polling
}

func New() Config {
	return mainConfig{}
}
