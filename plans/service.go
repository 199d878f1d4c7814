package plans

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/jobs"
	"github.com/debtwise/go-debtwise-client/rest"
)

// Service wraps the /plans endpoints. The async operations return job
// handles; callers await them with the supplied poller.
type Service struct {
	rest   *rest.Client
	jobs   *jobs.Service
	poller *jobs.Poller
}

func NewService(client *rest.Client, jobsService *jobs.Service, poller *jobs.Poller) *Service {
	return &Service{rest: client, jobs: jobsService, poller: poller}
}

// Active returns the user's current plan.
func (s *Service) Active(ctx context.Context) (*Plan, error) {
	var plan Plan
	if err := s.rest.Get(ctx, "/plans/active", &plan); err != nil {
		return nil, errors.Wrap(err, "[Service.Active] GET /plans/active")
	}
	return &plan, nil
}

// Summary returns the dashboard summary of the active plan.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var summary Summary
	if err := s.rest.Get(ctx, "/plans/summary", &summary); err != nil {
		return nil, errors.Wrap(err, "[Service.Summary] GET /plans/summary")
	}
	return &summary, nil
}

// Generate starts plan generation and returns the job handle without
// waiting for it.
func (s *Service) Generate(ctx context.Context, req Request) (*jobs.Job, error) {
	return s.startJob(ctx, "/plans/generate", req)
}

// GenerateAndWait starts plan generation and polls the job to completion.
func (s *Service) GenerateAndWait(ctx context.Context, req Request) (*Plan, error) {
	return s.runJob(ctx, "/plans/generate", req)
}

// Recalculate rebuilds the active plan from the current debts.
func (s *Service) Recalculate(ctx context.Context, req Request) (*jobs.Job, error) {
	return s.startJob(ctx, "/plans/recalculate", req)
}

// RecalculateAndWait rebuilds the active plan and polls to completion.
func (s *Service) RecalculateAndWait(ctx context.Context, req Request) (*Plan, error) {
	return s.runJob(ctx, "/plans/recalculate", req)
}

// Simulate evaluates a what-if scenario without changing the active plan.
func (s *Service) Simulate(ctx context.Context, req Request) (*jobs.Job, error) {
	return s.startJob(ctx, "/plans/simulate", req)
}

// SimulateAndWait evaluates a what-if scenario and polls to completion.
func (s *Service) SimulateAndWait(ctx context.Context, req Request) (*Simulation, error) {
	job, err := s.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}
	done, err := s.poller.Await(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	var sim Simulation
	if err := done.DecodeResult(&sim); err != nil {
		return nil, errors.Wrap(err, "[Service.SimulateAndWait] decode simulation result")
	}
	return &sim, nil
}

// Complete marks the plan finished once all debts are repaid.
func (s *Service) Complete(ctx context.Context, planID string) (*Plan, error) {
	var plan Plan
	if err := s.rest.Post(ctx, "/plans/"+url.PathEscape(planID)+"/complete", nil, &plan); err != nil {
		return nil, errors.Wrapf(err, "[Service.Complete] POST /plans/%s/complete", planID)
	}
	return &plan, nil
}

func (s *Service) startJob(ctx context.Context, path string, req Request) (*jobs.Job, error) {
	var job jobs.Job
	if err := s.rest.Post(ctx, path, req, &job); err != nil {
		return nil, errors.Wrapf(err, "[Service] POST %s", path)
	}
	if job.ID == "" {
		return nil, errors.Wrapf(clienterrors.ErrJobNotFound, "POST %s returned no job id", path)
	}
	return &job, nil
}

func (s *Service) runJob(ctx context.Context, path string, req Request) (*Plan, error) {
	job, err := s.startJob(ctx, path, req)
	if err != nil {
		return nil, err
	}
	done, err := s.poller.Await(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := done.DecodeResult(&plan); err != nil {
		return nil, errors.Wrapf(err, "[Service] decode plan result for job %s", job.ID)
	}
	return &plan, nil
}
