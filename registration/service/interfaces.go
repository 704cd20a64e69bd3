// registration/service/interfaces.go
package service

import (
	"context"
	"time"

	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/shared/models"
)

// TeamStore is the persistence collaborator for team aggregates. Satisfied
// by store.TeamStore (MongoDB) and store.MemoryTeamStore (tests).
type TeamStore interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	GetByRegistrationNumber(ctx context.Context, regNum string) (*models.Team, error)
	GetByParticipant(ctx context.Context, userID string) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]models.Team, error)
	ListCheckedIn(ctx context.Context) ([]models.Team, error)
	SetGatewayOrder(ctx context.Context, id, orderID string, amount int64) error
	SetGatewayProof(ctx context.Context, id string, proof models.GatewayProof, completedAt time.Time) error
	SetManualProof(ctx context.Context, id, transactionID string, amount int64, completedAt time.Time) error
	SetDocuments(ctx context.Context, id string, docs store.DocumentRefs, uploadedAt time.Time) error
	MarkVerified(ctx context.Context, id string, issue store.TicketIssue) error
	MarkRejected(ctx context.Context, id, reason string) error
	MarkPending(ctx context.Context, id string) error
	CheckIn(ctx context.Context, regNum, adminID, method string, at time.Time) (*models.Team, error)
	UndoCheckIn(ctx context.Context, id string) error
	Counts(ctx context.Context) (store.Counts, error)
}

// SequenceStore allocates registration and ticket numbers. Satisfied by
// store.CounterStore and store.MemoryCounterStore.
type SequenceStore interface {
	NextRegistrationNumber(ctx context.Context) (string, error)
	NextTicketNumber(ctx context.Context) (string, error)
}

// AdminStore is the persistence collaborator for operator accounts.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// LiveStats publishes best-effort check-in activity for kiosk dashboards.
type LiveStats interface {
	RecordCheckin(ctx context.Context, entry store.RecentCheckin) error
	Total(ctx context.Context) (int64, error)
	Recent(ctx context.Context) ([]store.RecentCheckin, error)
}
