package api

import (
	"context"
	"errors"

	"github.com/MacklinHill1/neighborhood-help-app/internal/backend"
	"github.com/MacklinHill1/neighborhood-help-app/internal/identity"
	"github.com/MacklinHill1/neighborhood-help-app/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC status codes.
func toStatus(op string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, backend.ErrInvalidMessage),
		errors.Is(err, backend.ErrMissingID),
		errors.Is(err, identity.ErrInvalidUser):
		code = codes.InvalidArgument
	case errors.Is(err, store.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, identity.ErrNoSession):
		code = codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return grpcstatus.Errorf(code, "%s: %v", op, err)
}
