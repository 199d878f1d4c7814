package uploads

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/jobs"
	"github.com/debtwise/go-debtwise-client/rest"
)

// Service wraps the /uploads endpoints.
type Service struct {
	rest        *rest.Client
	interval    time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration)
}

// ServiceOption configures the upload poll loop.
type ServiceOption func(*Service)

func WithPollInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithMaxPollAttempts(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewService(client *rest.Client, options ...ServiceOption) *Service {
	service := &Service{
		rest:        client,
		interval:    jobs.DefaultInterval,
		maxAttempts: jobs.DefaultMaxAttempts,
		sleep: func(ctx context.Context, d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		},
	}
	for _, opt := range options {
		opt(service)
	}
	return service
}

// UploadDocument submits a statement image for OCR and returns the job
// handle tracking the extraction.
func (s *Service) UploadDocument(ctx context.Context, filename string, file io.Reader, docType DocumentType, notes string) (*jobs.Job, error) {
	fields := map[string]string{"document_type": string(docType)}
	if notes != "" {
		fields["notes"] = notes
	}
	var job jobs.Job
	if err := s.rest.PostMultipart(ctx, "/uploads/document", "file", filename, file, fields, &job); err != nil {
		return nil, errors.Wrap(err, "[Service.UploadDocument] POST /uploads/document")
	}
	return &job, nil
}

// Status returns the upload's bespoke status payload.
func (s *Service) Status(ctx context.Context, uploadID string) (*StatusResponse, error) {
	var status StatusResponse
	if err := s.rest.Get(ctx, "/uploads/"+url.PathEscape(uploadID)+"/status", &status); err != nil {
		return nil, errors.Wrapf(err, "[Service.Status] GET /uploads/%s/status", uploadID)
	}
	return &status, nil
}

// WaitForResult polls the upload status until it is terminal, with the
// same cancellation, retry, and attempt-budget rules as the generic job
// poller.
func (s *Service) WaitForResult(ctx context.Context, uploadID string, onProgress jobs.ProgressFunc) (*OCRResult, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(clienterrors.ErrPollingCancelled, "upload %s: %v", uploadID, err)
		}

		status, err := s.Status(ctx, uploadID)
		if err != nil {
			if rest.ErrorStatus(err) != 0 || attempt == s.maxAttempts {
				return nil, errors.Wrapf(err, "[Service.WaitForResult] poll upload %s", uploadID)
			}
			log.Debug().Err(err).Str("upload_id", uploadID).Int("attempt", attempt).Msg("Transient upload poll failure, retrying")
			s.sleep(ctx, s.interval)
			continue
		}

		switch status.Status {
		case StatusCompleted:
			if status.Result == nil {
				// A malformed backend response, not a job failure.
				return nil, errors.Wrapf(clienterrors.ErrInternal, "upload %s completed without a result", uploadID)
			}
			return status.Result, nil

		case StatusFailed:
			message := "OCR processing failed"
			if status.ErrorMessage != nil && *status.ErrorMessage != "" {
				message = *status.ErrorMessage
			}
			return nil, errors.Wrapf(clienterrors.ErrJobFailed, "upload %s: %s", uploadID, message)

		default:
			if onProgress != nil {
				onProgress(status.ProgressPercentage)
			}
			if attempt < s.maxAttempts {
				s.sleep(ctx, s.interval)
			}
		}
	}
	return nil, errors.Wrapf(clienterrors.ErrPollingTimeout, "upload %s not terminal after %d attempts", uploadID, s.maxAttempts)
}
