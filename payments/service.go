package payments

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/debtwise/go-debtwise-client/rest"
)

// Service wraps the /payments endpoints.
type Service struct {
	rest *rest.Client
}

func NewService(client *rest.Client) *Service {
	return &Service{rest: client}
}

// Log records a payment and returns it along with any milestones reached.
func (s *Service) Log(ctx context.Context, create Create) (*LoggedPayment, error) {
	var logged LoggedPayment
	if err := s.rest.Post(ctx, "/payments", create, &logged); err != nil {
		return nil, errors.Wrap(err, "[Service.Log] POST /payments")
	}
	return &logged, nil
}

// ListOptions filter and page the payment list.
type ListOptions struct {
	DebtID string
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	query := url.Values{}
	if opts.DebtID != "" {
		query.Set("debt_id", opts.DebtID)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/payments"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var list ListResponse
	if err := s.rest.Get(ctx, path, &list); err != nil {
		return nil, errors.Wrap(err, "[Service.List] GET /payments")
	}
	return &list, nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Payment, error) {
	path := "/payments/recent"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var recent []Payment
	if err := s.rest.Get(ctx, path, &recent); err != nil {
		return nil, errors.Wrap(err, "[Service.Recent] GET /payments/recent")
	}
	return recent, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := s.rest.Get(ctx, "/payments/stats", &stats); err != nil {
		return nil, errors.Wrap(err, "[Service.Stats] GET /payments/stats")
	}
	return &stats, nil
}

func (s *Service) Get(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	if err := s.rest.Get(ctx, "/payments/"+url.PathEscape(paymentID), &payment); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] GET /payments/%s", paymentID)
	}
	return &payment, nil
}

func (s *Service) Update(ctx context.Context, paymentID string, update Update) (*Payment, error) {
	var payment Payment
	if err := s.rest.Patch(ctx, "/payments/"+url.PathEscape(paymentID), update, &payment); err != nil {
		return nil, errors.Wrapf(err, "[Service.Update] PATCH /payments/%s", paymentID)
	}
	return &payment, nil
}

func (s *Service) Delete(ctx context.Context, paymentID string) error {
	if err := s.rest.Delete(ctx, "/payments/"+url.PathEscape(paymentID), nil); err != nil {
		return errors.Wrapf(err, "[Service.Delete] DELETE /payments/%s", paymentID)
	}
	return nil
}
