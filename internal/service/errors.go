package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// RequestError is a failed marketplace call. Message is what the admin sees:
// the server-provided message when there is one, else an operation fallback.
type RequestError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Err }

// Is lets callers match any request failure with utils.ErrUpstream.
func (e *RequestError) Is(target error) bool { return target == utils.ErrUpstream }

// HTTPStatus maps the upstream status onto the status returned to the
// console. Client errors pass through; everything else is a bad gateway.
func (e *RequestError) HTTPStatus() int {
	if e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError {
		return e.StatusCode
	}
	return http.StatusBadGateway
}

func requestFailed(err error, fallback string) error {
	if err == nil {
		return nil
	}
	re := &RequestError{Message: marketplace.MessageOr(err, fallback), Err: err}
	var apiErr *marketplace.APIError
	if errors.As(err, &apiErr) {
		re.StatusCode = apiErr.StatusCode
	}
	return re
}

// ConfirmError is returned when a destructive action arrives without confirmation.
type ConfirmError struct {
	Prompt string
}

func (e *ConfirmError) Error() string { return e.Prompt }

func (e *ConfirmError) Is(target error) bool { return target == utils.ErrConfirmationRequired }

func needConfirm(format string, args ...any) error {
	return &ConfirmError{Prompt: fmt.Sprintf(format, args...)}
}

// InputError is a request the console has to correct before retrying.
type InputError struct {
	Code    error
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == e.Code }

func invalid(format string, args ...any) error {
	return &InputError{Code: utils.ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}
