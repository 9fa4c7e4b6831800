package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Third-Party API Errors
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
)

// Storage Errors
var (
	ErrStorageWrite = errors.New("storage write failed")
)

func NewRateLimitError(service string, retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Too many %s requests, retry in %s", service, retryAfter.Round(time.Second)),
		Field:      "rate_limit",
	}
}

func NewServiceUnavailableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is not available", service),
		Cause:      cause,
	}
}

func NewConfigMissingError(key string) error {
	return fmt.Errorf("%w: %s", ErrConfigMissing, key)
}

func NewStorageWriteError(key string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrStorageWrite,
		Details:    fmt.Sprintf("Failed to store %s", key),
		Cause:      cause,
	}
}

func IsConfigMissingError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}
