package service

import (
	"errors"
	"fmt"
	"time"
)

// Rejection reasons for contact submissions.  Handlers map them to status
// codes with errors.Is.
var (
	ErrRateLimited      = errors.New("too many requests")
	ErrValidationFailed = errors.New("validation failed")
	ErrMalformedRequest = errors.New("malformed request")
)

// RateLimitError is returned when the client's window is full.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ValidationError names the offending field and carries a message fit for
// the submitter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
