package api

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/floroz/gavel-registry/internal/registry"
)

// toConnectError maps registry errors onto connect codes
func toConnectError(err error) error {
	switch {
	case errors.Is(err, registry.ErrNoSuchItem):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, registry.ErrAccessRejected):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, registry.ErrItemIsNotActive):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, registry.ErrInvalidAmount):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, registry.ErrItemExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, registry.ErrRecordTooLarge):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, registry.ErrUpdateFailed):
		// nothing was persisted; the caller may resubmit
		return connect.NewError(connect.CodeAborted, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
