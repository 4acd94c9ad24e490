// Package errors converts validation outcomes into transport-facing errors
// with dual HTTP and gRPC status codes. The core jsonval package keeps its
// errors module-local; this package is the boundary where a rejected payload
// becomes a 400/413 or INVALID_ARGUMENT/RESOURCE_EXHAUSTED for whatever
// protocol the caller speaks.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ai8future/secval-go/jsonval"
)

// ServiceError represents an error with both HTTP and gRPC status codes and
// an optional violation list from a validation pass.
type ServiceError struct {
	Message    string
	GRPCCode   codes.Code
	HTTPCode   int
	Violations []jsonval.Violation
	cause      error
	typeURI    string // custom RFC 9457 type URI (optional)
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, supporting errors.Is/As chains.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// GRPCStatus returns a gRPC status for this error.
func (e *ServiceError) GRPCStatus() *status.Status {
	return status.New(e.GRPCCode, e.Message)
}

// WithViolations returns a copy of the error carrying the given violation
// list. The receiver is not modified.
func (e *ServiceError) WithViolations(violations []jsonval.Violation) *ServiceError {
	out := e.clone()
	out.Violations = violations
	return out
}

// WithType returns a copy of the error with a custom RFC 9457 type URI,
// overriding the default.
func (e *ServiceError) WithType(uri string) *ServiceError {
	out := e.clone()
	out.typeURI = uri
	return out
}

// WithCause returns a copy of the error with the underlying error cause set
// for Unwrap chaining.
func (e *ServiceError) WithCause(err error) *ServiceError {
	out := e.clone()
	out.cause = err
	return out
}

// clone returns a shallow copy of the ServiceError with a copied violation
// slice so decorated copies never alias the original.
func (e *ServiceError) clone() *ServiceError {
	out := *e
	if e.Violations != nil {
		out.Violations = make([]jsonval.Violation, len(e.Violations))
		copy(out.Violations, e.Violations)
	}
	return &out
}

// --- Factory constructors ---

// ValidationError creates an error for invalid input (400 / INVALID_ARGUMENT).
func ValidationError(msg string) *ServiceError {
	return &ServiceError{Message: msg, GRPCCode: codes.InvalidArgument, HTTPCode: http.StatusBadRequest}
}

// PayloadRejectedError creates the error for a payload that failed strict
// validation (400 / INVALID_ARGUMENT), carrying the full violation list.
func PayloadRejectedError(violations []jsonval.Violation) *ServiceError {
	return &ServiceError{
		Message:    fmt.Sprintf("payload rejected: %d validation violation(s)", len(violations)),
		GRPCCode:   codes.InvalidArgument,
		HTTPCode:   http.StatusBadRequest,
		Violations: violations,
	}
}

// PayloadTooLargeError creates an error for oversized payloads
// (413 / RESOURCE_EXHAUSTED).
func PayloadTooLargeError(msg string) *ServiceError {
	return &ServiceError{Message: msg, GRPCCode: codes.ResourceExhausted, HTTPCode: http.StatusRequestEntityTooLarge}
}

// MalformedError creates an error for input that is not well-formed JSON
// (400 / INVALID_ARGUMENT).
func MalformedError(msg string) *ServiceError {
	return &ServiceError{Message: msg, GRPCCode: codes.InvalidArgument, HTTPCode: http.StatusBadRequest}
}

// InternalError creates an error for unexpected failures (500 / INTERNAL).
func InternalError(msg string) *ServiceError {
	return &ServiceError{Message: msg, GRPCCode: codes.Internal, HTTPCode: http.StatusInternalServerError}
}

// --- Helpers ---

// FromValidation converts an error returned by jsonval's Serialize or
// Deserialize into a ServiceError. A *jsonval.SecurityError becomes a
// payload-rejected error carrying the violations — except that a pure
// total-size rejection maps to 413 rather than 400. A wrapped
// jsonval.ErrInvalidJSON becomes a malformed-input error. Anything else is
// wrapped as internal. Returns nil for nil.
func FromValidation(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	var secErr *jsonval.SecurityError
	if stderrors.As(err, &secErr) {
		if isPureSizeRejection(secErr.Violations) {
			return PayloadTooLargeError(secErr.Error()).
				WithViolations(secErr.Violations).WithCause(err)
		}
		return PayloadRejectedError(secErr.Violations).WithCause(err)
	}
	if stderrors.Is(err, jsonval.ErrInvalidJSON) {
		return MalformedError(err.Error()).WithCause(err)
	}
	return InternalError(err.Error()).WithCause(err)
}

// isPureSizeRejection reports whether every violation is a size overrun,
// meaning the payload was refused before any content inspection.
func isPureSizeRejection(violations []jsonval.Violation) bool {
	if len(violations) == 0 {
		return false
	}
	for _, v := range violations {
		if v.Kind != jsonval.SizeLimitExceeded {
			return false
		}
	}
	return true
}

// Errorf creates a formatted ServiceError using the given factory.
func Errorf(factory func(string) *ServiceError, format string, args ...any) *ServiceError {
	return factory(fmt.Sprintf(format, args...))
}
