package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
)

// Error kinds. Every backend failure reaching a caller carries one of
// these, never a bare status code.
const (
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindNotFound     = "not_found"
	KindValidation   = "validation"
	KindConflict     = "conflict"
	KindServer       = "server"
	KindTransport    = "transport"
)

// APIError is the uniform error shape for backend failures.
type APIError struct {
	Kind    string
	Message string
	Status  int
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap maps the error onto the shared sentinel taxonomy so callers can
// use errors.Is without importing status codes.
func (e *APIError) Unwrap() error {
	switch e.Kind {
	case KindUnauthorized:
		return clienterrors.ErrUnauthorized
	case KindForbidden:
		return clienterrors.ErrForbidden
	case KindNotFound:
		return clienterrors.ErrNotFound
	case KindValidation:
		return clienterrors.ErrValidation
	default:
		return nil
	}
}

// ErrorStatus returns the embedded HTTP status of err, or 0 when err is not
// an APIError (transport failures included).
func ErrorStatus(err error) int {
	var apiErr *APIError
	if clienterrors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	return ErrorStatus(err) == http.StatusUnauthorized
}

func transportError(err error) *APIError {
	return &APIError{Kind: KindTransport, Message: err.Error()}
}

func errorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(raw) > 0 {
		var payload struct {
			Detail  json.RawMessage `json:"detail"`
			Message string          `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			switch {
			case payload.Message != "":
				apiErr.Message = payload.Message
			case len(payload.Detail) > 0:
				var detail string
				if json.Unmarshal(payload.Detail, &detail) == nil {
					apiErr.Message = detail
				} else {
					// Structured validation detail; keep it for the caller.
					var structured any
					if json.Unmarshal(payload.Detail, &structured) == nil {
						apiErr.Details = map[string]any{"detail": structured}
					}
				}
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func kindForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return KindValidation
	default:
		return KindServer
	}
}
