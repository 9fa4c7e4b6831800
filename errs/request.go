package errs

import (
	"errors"
	"net/http"
)

var (
	Unauthorized = NewApiErr(http.StatusUnauthorized, "unauthorized")
)

// Authentication & Authorization Errors
var (
	ErrMissingToken       = errors.New("missing session token")
	ErrExpiredToken       = errors.New("expired session token")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// NewInvalidCredentialsError is returned for a failed login. It never says
// which of email or password was wrong.
func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
	}
}

func IsMissingTokenError(err error) bool {
	return errors.Is(err, ErrMissingToken)
}

func IsExpiredTokenError(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}

func IsInvalidTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
