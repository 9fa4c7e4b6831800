package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rpupo63/portfolio-cms-backend/errs"
)

// maxJSONBodySize caps JSON request bodies; uploads have their own limits.
const maxJSONBodySize = 1 << 20

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	// Marshal the data first to check size and handle errors
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Check if response is too large (e.g., > 10MB)
	const maxResponseSize = 10 * 1024 * 1024 // 10MB
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large")

		r.WriteError(w, errs.NewInternalError("response too large"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error:  "Internal Server Error",
			Status: "error",
		})
		return
	}

	// Internal failures keep their detail in the log only
	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Int("status", apiErr.StatusCode).Msg(apiErr.GetFullError())
		r.WriteJSONStatus(w, apiErr.StatusCode, ErrorResponse{
			Error:  apiErr.Message(),
			Status: "error",
		})
		return
	}

	if errs.IsValidationError(apiErr) {
		r.WriteJSONStatus(w, apiErr.StatusCode, ErrorResponse{
			Error:  apiErr.Message(),
			Status: "validation_error",
			Errors: apiErr.Fields,
		})
		return
	}

	if apiErr.StatusCode == http.StatusUnauthorized {
		r.WriteJSONStatus(w, apiErr.StatusCode, ErrorResponse{
			Error:  "unauthorized",
			Status: "error",
		})
		return
	}

	switch {
	case errs.IsConflict(apiErr):
		r.logger.Info().Str("field", apiErr.Field).Msg(apiErr.Message())
	case errs.IsNotFound(apiErr):
		r.logger.Debug().Msg(apiErr.Message())
	case apiErr.Cause != nil:
		r.logger.Debug().Err(apiErr.Cause).Msg(apiErr.Error())
	}
	r.WriteJSONStatus(w, apiErr.StatusCode, ErrorResponse{
		Error:   apiErr.Message(),
		Status:  "error",
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// WriteValidationError writes a single-field validation error
func (r Responder) WriteValidationError(w http.ResponseWriter, field string, message string) {
	r.WriteError(w, errs.NewValidationError([]errs.FieldError{{Field: field, Message: message}}))
}

// decodeJSON reads a JSON body of at most maxJSONBodySize bytes into dst and
// returns the raw bytes for callers that need to inspect which keys were sent.
func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxJSONBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errs.NewMaxBodySizeExceededError(maxErr.Limit)
		}
		return nil, errs.NewBadRequestError("failed to read request body")
	}
	if len(body) == 0 {
		return nil, errs.NewMalformedPayloadError("empty", nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, errs.NewValidationError([]errs.FieldError{{
				Field:   typeErr.Field,
				Message: "must be a " + typeErr.Type.String(),
			}})
		}
		return nil, errs.NewInvalidJSONError(err)
	}
	return body, nil
}

// wrapDatabaseError wraps a database error with context information
func wrapDatabaseError(operation, entity string, cause error) error {
	return errs.NewDatabaseError(operation, entity, cause)
}
