package ai

import (
	"errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/similigh/simili-triage/internal/reasoning"
)

// grpcHTTPStatus maps the gRPC codes a completion call can fail with onto
// their HTTP equivalents.
var grpcHTTPStatus = map[codes.Code]int{
	codes.InvalidArgument:   400,
	codes.Unauthenticated:   401,
	codes.PermissionDenied:  403,
	codes.NotFound:          404,
	codes.ResourceExhausted: 429,
	codes.Internal:          500,
	codes.Unavailable:       503,
	codes.DeadlineExceeded:  504,
}

// statusCode extracts an HTTP-style status from a Gemini client error. REST
// transport errors are *googleapi.Error; gRPC transport errors carry a status.
// It returns 0 when no status is known.
func statusCode(err error) int {
	if err == nil {
		return 0
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}

	if st, ok := status.FromError(err); ok {
		return grpcHTTPStatus[st.Code()]
	}
	return 0
}

// withStatus wraps err in a *reasoning.BackendError when its status is known.
func withStatus(err error, code int) error {
	if code == 0 {
		return err
	}
	return &reasoning.BackendError{StatusCode: code, Err: err}
}
