package errs

import (
	"net/http"
	"strings"
)

// FieldError is one failed field check from a form payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors accumulates every failing field instead of stopping at the first.
type FieldErrors []FieldError

func (f *FieldErrors) Add(field, message string) {
	*f = append(*f, FieldError{Field: field, Message: message})
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Err returns nil when nothing failed, otherwise a 400 ApiErr carrying every field.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError(f)
}

func NewValidationError(fields []FieldError) *ApiErr {
	names := make([]string, 0, len(fields))
	for _, fe := range fields {
		names = append(names, fe.Field)
	}
	apiErr := &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrValidation,
		Details:    "invalid fields: " + strings.Join(names, ", "),
		Fields:     fields,
	}
	if len(fields) == 1 {
		apiErr.Field = fields[0].Field
	}
	return apiErr
}
