package users

import (
	"context"

	"github.com/pkg/errors"

	"github.com/debtwise/go-debtwise-client/rest"
)

// Service wraps the /auth endpoints.
type Service struct {
	rest *rest.Client
}

func NewService(client *rest.Client) *Service {
	return &Service{rest: client}
}

// Me returns the current user's profile. A 401 here means the bearer token
// was rejected even after the transport's refresh-and-retry, so the caller
// should treat the session as gone.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := s.rest.Get(ctx, "/auth/me", &profile); err != nil {
		return nil, errors.Wrap(err, "[Service.Me] GET /auth/me")
	}
	return &profile, nil
}

// Update modifies the current user's profile.
func (s *Service) Update(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var profile Profile
	if err := s.rest.Put(ctx, "/auth/me", update, &profile); err != nil {
		return nil, errors.Wrap(err, "[Service.Update] PUT /auth/me")
	}
	return &profile, nil
}

// CompleteOnboarding marks onboarding finished with the initial figures.
func (s *Service) CompleteOnboarding(ctx context.Context, data OnboardingComplete) (*Profile, error) {
	var profile Profile
	if err := s.rest.Post(ctx, "/auth/onboarding/complete", data, &profile); err != nil {
		return nil, errors.Wrap(err, "[Service.CompleteOnboarding] POST /auth/onboarding/complete")
	}
	return &profile, nil
}

// Onboarding returns the current onboarding state.
func (s *Service) Onboarding(ctx context.Context) (*OnboardingStatus, error) {
	var status OnboardingStatus
	if err := s.rest.Get(ctx, "/auth/onboarding/status", &status); err != nil {
		return nil, errors.Wrap(err, "[Service.Onboarding] GET /auth/onboarding/status")
	}
	return &status, nil
}

// DeleteAccount removes the user's account and all data.
func (s *Service) DeleteAccount(ctx context.Context) error {
	if err := s.rest.Delete(ctx, "/auth/me", nil); err != nil {
		return errors.Wrap(err, "[Service.DeleteAccount] DELETE /auth/me")
	}
	return nil
}
