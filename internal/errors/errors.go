package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Debtwise client
var (
	// Authentication errors
	ErrAuthCallback         = errors.New("auth callback missing or malformed token")
	ErrSessionRefreshFailed = errors.New("session refresh failed")
	ErrProfileFetchFailed   = errors.New("profile fetch failed")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrSignInFailed         = errors.New("sign in failed")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Job polling errors
	ErrPollingTimeout   = errors.New("polling timed out")
	ErrPollingCancelled = errors.New("polling cancelled")
	ErrJobFailed        = errors.New("job failed")
	ErrJobNotFound      = errors.New("job not found")

	// API errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
