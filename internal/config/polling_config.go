package config

import (
	"strconv"
	"time"
)

type PollingConfig interface {
	GetPollInterval() time.Duration
	GetMaxPollAttempts() int
}

type Polling struct{}

var _ PollingConfig = Polling{}

func (Polling) GetPollInterval() time.Duration {
	ms, err := strconv.Atoi(GetEnv("POLL_INTERVAL_MS", "1000"))
	if err != nil || ms <= 0 {
		return time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

func (Polling) GetMaxPollAttempts() int {
	attempts, err := strconv.Atoi(GetEnv("POLL_MAX_ATTEMPTS", "60"))
	if err != nil || attempts <= 0 {
		return 60
	}
	return attempts
}
