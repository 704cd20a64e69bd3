// registration/notify/notify.go
package notify

import (
	"context"

	"github.com/hackbits/registration-service/shared/models"
)

// Notifier delivers lifecycle emails to a team's leader. Implementations
// must tolerate being called off the request path; failures are logged by
// callers, never surfaced to clients.
type Notifier interface {
	TeamRegistered(ctx context.Context, team *models.Team) error
	PaymentVerified(ctx context.Context, team *models.Team) error
	PaymentRejected(ctx context.Context, team *models.Team) error
}

// NopNotifier discards every notification. Used when no mail transport is
// configured and in tests.
type NopNotifier struct{}

func (NopNotifier) TeamRegistered(context.Context, *models.Team) error { return nil }
func (NopNotifier) PaymentVerified(context.Context, *models.Team) error {
	return nil
}
func (NopNotifier) PaymentRejected(context.Context, *models.Team) error {
	return nil
}
