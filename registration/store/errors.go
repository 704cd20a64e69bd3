// registration/store/errors.go
package store

import "errors"

// Sentinel errors returned by the stores so the service layer can map
// persistence outcomes to business errors without string matching.
var (
	// ErrNotFound means no document matched the lookup key.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateTeamName means the unique team_name index rejected an insert.
	ErrDuplicateTeamName = errors.New("team name already taken")
	// ErrDuplicateParticipant means a leader or member already belongs to a team.
	ErrDuplicateParticipant = errors.New("participant already on a team")
	// ErrDuplicateRegistration means a registration-number allocation raced;
	// the caller should retry with a fresh sequence value.
	ErrDuplicateRegistration = errors.New("registration number already assigned")
	// ErrPreconditionFailed means a conditional update matched no document:
	// either the document is gone or its guarded state changed concurrently.
	ErrPreconditionFailed = errors.New("state precondition not met")
)
