package config

import (
	"strconv"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the base URL of the Debtwise backend
// (e.g. "https://api.debtwise.app").
func (API) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:8000")
}

func (API) GetRequestTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv("API_TIMEOUT_SECONDS", "30"))
	if err != nil || seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
