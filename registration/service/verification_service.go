// registration/service/verification_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackbits/registration-service/registration/notify"
	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/registration/ticket"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// defaultRejectionReason is stored when an operator rejects without giving
// a reason, keeping the reason field non-empty in the rejected state.
const defaultRejectionReason = "Payment verification failed"

// VerificationService runs the payment-status state machine:
// pending -> {verified, rejected}, rejected -> pending -> ... . Verification
// issues the admission ticket; rejection clears it so a later
// re-verification allocates a fresh number.
type VerificationService struct {
	teams    TeamStore
	seq      SequenceStore
	tickets  *ticket.Generator
	notifier notify.Notifier
	log      *logger.Logger
}

// NewVerificationService creates a new VerificationService instance.
func NewVerificationService(teams TeamStore, seq SequenceStore, tickets *ticket.Generator, notifier notify.Notifier, log *logger.Logger) *VerificationService {
	return &VerificationService{teams: teams, seq: seq, tickets: tickets, notifier: notifier, log: log}
}

// SetPaymentStatus applies one operator decision. Every branch persists as
// a single atomic update; a ticket number can never exist on a team whose
// payment is not verified.
func (vs *VerificationService) SetPaymentStatus(ctx context.Context, teamID string, target models.PaymentStatus, reason, adminID string) (*models.Team, error) {
	switch target {
	case models.PaymentVerified:
		return vs.verify(ctx, teamID, adminID)
	case models.PaymentRejected:
		return vs.reject(ctx, teamID, reason, adminID)
	case models.PaymentPending:
		return vs.reset(ctx, teamID, adminID)
	}
	return nil, ErrInvalidStatus
}

// verify checks the documentary preconditions, issues (or re-renders) the
// ticket and flips the aggregate to verified in one conditional update.
// Re-running verification is idempotent on the ticket identity: the number
// never changes once issued, and concurrent verifications converge on
// whichever issuance won.
func (vs *VerificationService) verify(ctx context.Context, teamID, adminID string) (*models.Team, error) {
	team, err := vs.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := checkVerifyPreconditions(team); err != nil {
		return nil, err
	}

	issue, err := vs.buildIssue(ctx, team, adminID)
	if err != nil {
		return nil, err
	}

	err = vs.teams.MarkVerified(ctx, team.ID, *issue)
	if errors.Is(err, store.ErrPreconditionFailed) {
		// Someone else changed the guarded state. Re-read and either
		// converge on a concurrently issued ticket or surface the real
		// precondition failure.
		team, err = vs.getTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if err := checkVerifyPreconditions(team); err != nil {
			return nil, err
		}
		if issue, err = vs.buildIssue(ctx, team, adminID); err != nil {
			return nil, err
		}
		if err = vs.teams.MarkVerified(ctx, team.ID, *issue); err != nil {
			return nil, fmt.Errorf("failed to verify team %s: %w", team.ID, err)
		}
	} else if err != nil {
		return nil, err
	}

	verified, err := vs.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	vs.log.Audit("payment verified",
		"team_id", verified.ID,
		"registration_number", verified.RegistrationNumber,
		"ticket_number", verified.TicketNumber,
		"admin_id", adminID,
		"first_issue", issue.FirstIssue,
	)
	if issue.FirstIssue {
		vs.dispatch(verified, vs.notifier.PaymentVerified, "verification")
	}
	return verified, nil
}

// buildIssue assembles the full set of fields a verified transition writes.
// An existing ticket number is reused verbatim (FirstIssue=false); otherwise
// a fresh number is drawn from the allocator.
func (vs *VerificationService) buildIssue(ctx context.Context, team *models.Team, adminID string) (*store.TicketIssue, error) {
	number := team.TicketNumber
	verifiedAt := time.Now()
	firstIssue := number == ""
	if firstIssue {
		var err error
		if number, err = vs.seq.NextTicketNumber(ctx); err != nil {
			return nil, fmt.Errorf("failed to allocate ticket number: %w", err)
		}
	} else if team.VerifiedAt != nil {
		// Re-rendering must be deterministic: keep the original stamp.
		verifiedAt = *team.VerifiedAt
	}

	artifacts, err := vs.tickets.Issue(ticket.Claims{
		TicketNumber:       number,
		TeamName:           team.TeamName,
		RegistrationNumber: team.RegistrationNumber,
		LeaderName:         team.Leader.Name,
		VerifiedAt:         verifiedAt.UTC().Truncate(time.Second),
	}, string(team.TeamSize))
	if err != nil {
		return nil, fmt.Errorf("failed to issue ticket for team %s: %w", team.ID, err)
	}

	return &store.TicketIssue{
		TicketNumber: number,
		QRPayload:    artifacts.QRPayload,
		QRCode:       artifacts.QRCode,
		Document:     artifacts.Document,
		VerifiedBy:   adminID,
		VerifiedAt:   verifiedAt,
		FirstIssue:   firstIssue,
	}, nil
}

// checkVerifyPreconditions maps missing evidence to the business errors the
// operator sees. Order matters: payment proof is checked before documents,
// matching the order the team supplies them in.
func checkVerifyPreconditions(team *models.Team) error {
	if !team.HasPaymentProof() {
		return ErrPaymentMissing
	}
	if !team.HasDocuments() {
		return ErrDocumentsMissing
	}
	return nil
}

// reject clears the ticket identity and verification stamps and stores the
// reason. A later re-verification allocates a new ticket number; any
// previously distributed ticket artifact stops being valid.
func (vs *VerificationService) reject(ctx context.Context, teamID, reason, adminID string) (*models.Team, error) {
	if reason == "" {
		reason = defaultRejectionReason
	}

	if _, err := vs.getTeam(ctx, teamID); err != nil {
		return nil, err
	}
	err := vs.teams.MarkRejected(ctx, teamID, reason)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}

	rejected, err := vs.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	vs.log.Audit("payment rejected",
		"team_id", rejected.ID,
		"registration_number", rejected.RegistrationNumber,
		"reason", reason,
		"admin_id", adminID,
	)
	vs.dispatch(rejected, vs.notifier.PaymentRejected, "rejection")
	return rejected, nil
}

// reset returns the team to pending without side effects. Operator
// correction path.
func (vs *VerificationService) reset(ctx context.Context, teamID, adminID string) (*models.Team, error) {
	err := vs.teams.MarkPending(ctx, teamID)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}

	team, err := vs.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	vs.log.Audit("payment status reset to pending",
		"team_id", team.ID, "admin_id", adminID)
	return team, nil
}

// TicketDocument returns the rendered printable ticket of a verified team.
func (vs *VerificationService) TicketDocument(ctx context.Context, teamID string) (string, error) {
	team, err := vs.getTeam(ctx, teamID)
	if err != nil {
		return "", err
	}
	if team.PaymentStatus != models.PaymentVerified || team.TicketDocument == "" {
		return "", ErrNotVerified
	}
	return team.TicketDocument, nil
}

// dispatch fires a lifecycle notification without blocking the decision
// path. Failures are logged, never retried here.
func (vs *VerificationService) dispatch(team *models.Team, send func(context.Context, *models.Team) error, kind string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx, team); err != nil {
			vs.log.Warnw("notification failed",
				"kind", kind, "team_id", team.ID, "error", err)
		}
	}()
}

func (vs *VerificationService) getTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := vs.teams.GetByID(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	return team, err
}
