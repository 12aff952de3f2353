package store

import (
	"errors"

	"github.com/jacentio/lattice/schema"
)

// Response is the uniform envelope every public operation maps to:
// {status: 200, data} on success, {status, error} on failure. Nothing
// escapes the boundary uncaught.
type Response struct {
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Envelope converts an operation outcome into the uniform response.
func Envelope(data any, err error) Response {
	if err == nil {
		return Response{Status: 200, Data: data}
	}
	return Response{Status: StatusOf(err), Error: err.Error()}
}

// StatusOf maps a typed error to its response status. Validation failures
// are 400, unknown tables and records 404, version conflicts 409, and
// everything else (lock timeouts, storage failures) 500.
func StatusOf(err error) int {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode()
	}

	var missing *schema.MissingFieldsError
	var typeErr *schema.TypeError
	var conflict *ConflictError
	switch {
	case errors.As(err, &missing),
		errors.As(err, &typeErr),
		errors.Is(err, schema.ErrUnknownFieldType),
		errors.Is(err, schema.ErrAlreadyRegistered),
		errors.Is(err, ErrBadPagination),
		errors.Is(err, ErrTooManyIDs),
		errors.Is(err, ErrUnknownUpsertKey):
		return 400
	case errors.Is(err, ErrNotFound),
		errors.Is(err, schema.ErrTableNotRegistered):
		return 404
	case errors.As(err, &conflict):
		return 409
	}
	return 500
}
