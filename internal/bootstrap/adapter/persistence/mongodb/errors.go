package mongodb

import (
	"errors"
	"fmt"

	apperrors "setdb-init/internal/shared/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes the bootstrap reacts to
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
	codeNamespaceExists      = 48
	codeUserAlreadyExists    = 51003
)

// hasErrorCode reports whether err carries the given server error code
func hasErrorCode(err error, code int) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(code)
	}
	return false
}

// classifyError maps a driver error onto the shared taxonomy. Errors that are
// already classified pass through unchanged.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return apperrors.NewConnectionUnavailableError(fmt.Sprintf("%s: server unreachable", operation)).
			WithCause(err).WithComponent("mongodb")
	case hasErrorCode(err, codeUnauthorized), hasErrorCode(err, codeAuthenticationFailed):
		return apperrors.NewAuthorizationError(fmt.Sprintf("%s: not authorized", operation)).
			WithCause(err).WithComponent("mongodb")
	}

	return apperrors.NewInfrastructureError(fmt.Sprintf("%s failed", operation)).
		WithCause(err).WithComponent("mongodb")
}
