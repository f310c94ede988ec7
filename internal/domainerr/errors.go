package domainerr

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain tags ErrorInfo details attached to gRPC statuses.
const Domain = "tolstack.danielpatrickdp.github.com"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata creates a domain error carrying key/value context.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeUnknown.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}

// ToStatus converts any error into a gRPC status error. Domain errors keep
// their code and metadata as an ErrorInfo detail.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if !errors.As(err, &de) {
		return status.Error(CodeInternal.GRPCCode(), err.Error())
	}
	st := status.New(de.Code.GRPCCode(), de.Error())
	withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(de.Code),
		Domain:   Domain,
		Metadata: de.Metadata,
	})
	if detailErr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// FromStatus recovers the domain code from a gRPC status error produced by
// ToStatus. Errors without an ErrorInfo detail map to CodeUnknown.
func FromStatus(err error) Code {
	st, ok := status.FromError(err)
	if !ok {
		return CodeUnknown
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == Domain {
			return Code(info.GetReason())
		}
	}
	return CodeUnknown
}
