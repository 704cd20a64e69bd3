// registration/api/errors.go
package api

import (
	"errors"
	"net/http"

	"github.com/hackbits/registration-service/registration/gateway"
	"github.com/hackbits/registration-service/registration/service"
	"github.com/hackbits/registration-service/registration/storage"
	sharedapi "github.com/hackbits/registration-service/shared/api"
	"github.com/hackbits/registration-service/shared/logger"
)

// writeServiceError maps business errors onto HTTP status codes:
// 404 not found, 409 uniqueness conflict, 400 precondition violation,
// 401 bad credentials, 503 transient dependency failure, 500 otherwise.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrTeamNotFound):
		sharedapi.WriteNotFound(w, err.Error())
	case errors.Is(err, service.ErrDuplicateTeamName),
		errors.Is(err, service.ErrAlreadyRegistered):
		sharedapi.WriteConflict(w, err.Error())
	case errors.Is(err, service.ErrInvalidTier),
		errors.Is(err, service.ErrMemberCount),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrPaymentNotStarted),
		errors.Is(err, service.ErrSignatureMismatch),
		errors.Is(err, service.ErrPaymentNotCaptured),
		errors.Is(err, service.ErrPaymentMissing),
		errors.Is(err, service.ErrDocumentsMissing),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrNotVerified),
		errors.Is(err, service.ErrNotCheckedIn):
		sharedapi.WriteBadRequest(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		sharedapi.WriteUnauthorized(w, err.Error())
	case errors.Is(err, gateway.ErrUnavailable),
		errors.Is(err, storage.ErrUnavailable):
		sharedapi.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorw("request failed", "error", err)
		sharedapi.WriteInternalServerError(w, "internal server error")
	}
}
