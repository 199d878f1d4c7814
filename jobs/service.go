package jobs

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/debtwise/go-debtwise-client/rest"
)

// Service wraps the /jobs endpoints.
type Service struct {
	rest *rest.Client
}

func NewService(client *rest.Client) *Service {
	return &Service{rest: client}
}

// Get returns the full job record including its result payload.
func (s *Service) Get(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := s.rest.Get(ctx, "/jobs/"+url.PathEscape(jobID), &job); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] GET /jobs/%s", jobID)
	}
	return &job, nil
}

// Status returns the lightweight status record used for frequent polling.
func (s *Service) Status(ctx context.Context, jobID string) (*StatusInfo, error) {
	var info StatusInfo
	if err := s.rest.Get(ctx, "/jobs/"+url.PathEscape(jobID)+"/status", &info); err != nil {
		return nil, errors.Wrapf(err, "[Service.Status] GET /jobs/%s/status", jobID)
	}
	return &info, nil
}

// ListOptions filter the job listing.
type ListOptions struct {
	JobType Type
	Status  Status
	Limit   int
}

// List returns the current user's jobs, most recent first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Job, error) {
	query := url.Values{}
	if opts.JobType != "" {
		query.Set("job_type", string(opts.JobType))
	}
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/jobs"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var list []Job
	if err := s.rest.Get(ctx, path, &list); err != nil {
		return nil, errors.Wrap(err, "[Service.List] GET /jobs")
	}
	return list, nil
}
