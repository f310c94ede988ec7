// Package domainerr provides coded errors shared by the analysis engines and
// the RPC surface.
package domainerr

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeMateSameKind Code = "MATE_SAME_KIND"
	CodeUnknownKind  Code = "UNKNOWN_KIND"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInternal     Code = "INTERNAL"
)

// GRPCCode maps a domain code onto the closest gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidInput, CodeMateSameKind, CodeUnknownKind:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeInternal:
		return codes.Internal
	default:
		return codes.Unknown
	}
}
