package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrTransactionFailed  = errors.New("transaction failed")
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// NewAlreadyExists reports a duplicate on a unique column of entity.
func NewAlreadyExists(entity, field string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        tagged(fmt.Sprintf("%s with this %s already exists", entity, field), ErrConflict),
		Field:      field,
	}
}

// NewDatabaseError creates a new database error with details about the operation
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	if cause != nil {
		var apiErr *ApiErr
		if errors.As(cause, &apiErr) {
			return apiErr
		}
		if errors.Is(cause, gorm.ErrRecordNotFound) {
			return &ApiErr{
				StatusCode: http.StatusNotFound,
				err:        fmt.Errorf("%s %w", entity, ErrNotFound),
				Details:    details,
				Cause:      cause,
			}
		}

		// Check for common database errors and provide more specific messages
		errStr := strings.ToLower(cause.Error())
		switch {
		case strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "unique constraint"):
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        tagged(fmt.Sprintf("%s already exists", entity), ErrConflict),
				Details:    details,
				Cause:      cause,
			}
		case strings.Contains(errStr, "foreign key constraint"):
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        fmt.Errorf("invalid reference in %s", entity),
				Details:    "The referenced resource does not exist or cannot be linked",
				Cause:      cause,
			}
		case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "bad connection"):
			return &ApiErr{
				StatusCode: http.StatusServiceUnavailable,
				err:        ErrDatabaseConnection,
				Details:    "Unable to connect to database",
				Cause:      cause,
			}
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
	}
}

func NewTransactionFailedError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrTransactionFailed,
		Details:    fmt.Sprintf("Transaction failed during %s", operation),
		Cause:      cause,
	}
}
