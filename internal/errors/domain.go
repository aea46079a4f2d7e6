package errors

import (
	stderrors "errors"
	"net/http"

	"monotributo-dashboard/internal/services"
)

// FromDomain maps analysis errors onto API errors. Unknown errors become
// internal errors.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	details := ""
	var fileErr *services.FileError
	if stderrors.As(err, &fileErr) {
		details = string(fileErr.Role)
	}

	var (
		schemaErr     *services.SchemaError
		parseErr      *services.ParseError
		validationErr *services.ValidationError
		maxBytesErr   *http.MaxBytesError
	)

	var out *AppError
	switch {
	case stderrors.As(err, &schemaErr):
		out = Wrap(err, CodeSchema, schemaErr.Error())
	case stderrors.As(err, &parseErr):
		out = Wrap(err, CodeParse, parseErr.Error())
	case stderrors.As(err, &validationErr):
		out = ValidationWrap(err, validationErr.Error())
	case stderrors.As(err, &maxBytesErr):
		out = TooLargeWrap(err, "uploaded files exceed the size limit")
	default:
		out = InternalWrap(err, "An unexpected error occurred")
	}
	out.Details = details
	return out
}
