package debts

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/debtwise/go-debtwise-client/rest"
)

// Service wraps the /debts endpoints.
type Service struct {
	rest *rest.Client
}

func NewService(client *rest.Client) *Service {
	return &Service{rest: client}
}

func (s *Service) List(ctx context.Context) (*ListResponse, error) {
	var list ListResponse
	if err := s.rest.Get(ctx, "/debts", &list); err != nil {
		return nil, errors.Wrap(err, "[Service.List] GET /debts")
	}
	return &list, nil
}

func (s *Service) Get(ctx context.Context, debtID string) (*Debt, error) {
	var debt Debt
	if err := s.rest.Get(ctx, "/debts/"+url.PathEscape(debtID), &debt); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] GET /debts/%s", debtID)
	}
	return &debt, nil
}

func (s *Service) Create(ctx context.Context, create Create) (*Debt, error) {
	var debt Debt
	if err := s.rest.Post(ctx, "/debts", create, &debt); err != nil {
		return nil, errors.Wrap(err, "[Service.Create] POST /debts")
	}
	return &debt, nil
}

func (s *Service) Update(ctx context.Context, debtID string, update Update) (*Debt, error) {
	var debt Debt
	if err := s.rest.Patch(ctx, "/debts/"+url.PathEscape(debtID), update, &debt); err != nil {
		return nil, errors.Wrapf(err, "[Service.Update] PATCH /debts/%s", debtID)
	}
	return &debt, nil
}

// MarkPaid flags the debt as fully repaid.
func (s *Service) MarkPaid(ctx context.Context, debtID string) (*Debt, error) {
	var debt Debt
	if err := s.rest.Post(ctx, "/debts/"+url.PathEscape(debtID)+"/mark-paid", nil, &debt); err != nil {
		return nil, errors.Wrapf(err, "[Service.MarkPaid] POST /debts/%s/mark-paid", debtID)
	}
	return &debt, nil
}

func (s *Service) Delete(ctx context.Context, debtID string) error {
	if err := s.rest.Delete(ctx, "/debts/"+url.PathEscape(debtID), nil); err != nil {
		return errors.Wrapf(err, "[Service.Delete] DELETE /debts/%s", debtID)
	}
	return nil
}
