package registry

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound        = errors.New("registry: not found")
	ErrCIDMismatch     = errors.New("registry: content id mismatch")
	ErrInvalidID       = errors.New("registry: invalid program id")
	ErrNetworkMismatch = errors.New("registry: network mismatch")
)

// ContentIDHeader carries the content id of a GetProgram response.
const ContentIDHeader = "x-content-cid"

// NetworkHeader carries the caller's network on every request.
const NetworkHeader = "x-network"

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return ErrInvalidID
	case codes.DataLoss:
		return ErrCIDMismatch
	case codes.FailedPrecondition:
		if st.Message() == ErrNetworkMismatch.Error() {
			return ErrNetworkMismatch
		}
		return err
	default:
		return err
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, ErrNotFound.Error())
	case errors.Is(err, ErrInvalidID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrCIDMismatch):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, ErrNetworkMismatch):
		return status.Error(codes.FailedPrecondition, ErrNetworkMismatch.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
