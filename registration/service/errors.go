// registration/service/errors.go
package service

import "errors"

// Business errors the API layer maps onto HTTP status codes.
var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrDuplicateTeamName = errors.New("team name is already taken")
	ErrAlreadyRegistered = errors.New("a participant is already registered with another team")
	ErrInvalidTier       = errors.New("invalid team size")
	ErrMemberCount       = errors.New("member count does not match team size")

	ErrAlreadyVerified    = errors.New("payment is already verified")
	ErrPaymentNotStarted  = errors.New("no payment order exists for this team")
	ErrSignatureMismatch  = errors.New("payment signature verification failed")
	ErrPaymentNotCaptured = errors.New("payment is not captured at the gateway")

	ErrPaymentMissing   = errors.New("payment proof has not been submitted")
	ErrDocumentsMissing = errors.New("payment documents have not been uploaded")
	ErrInvalidStatus    = errors.New("invalid payment status")

	ErrNotVerified  = errors.New("team payment is not verified")
	ErrNotCheckedIn = errors.New("team is not checked in")

	ErrInvalidCredentials = errors.New("invalid username or password")
)
