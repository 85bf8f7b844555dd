package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken         = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials   = errors.New("INVALID_CREDENTIALS")
	ErrAccountDisabled      = errors.New("ACCOUNT_DISABLED")
	ErrInvalidRequest       = errors.New("INVALID_REQUEST")
	ErrValidationFailed     = errors.New("VALIDATION_FAILED")
	ErrConfirmationRequired = errors.New("CONFIRMATION_REQUIRED")
	ErrInvalidStatus        = errors.New("INVALID_STATUS")
	ErrSubmitInProgress     = errors.New("SUBMIT_IN_PROGRESS")
	ErrLocationUnavailable  = errors.New("LOCATION_UNAVAILABLE")
	ErrUpstream             = errors.New("UPSTREAM_ERROR")
)
