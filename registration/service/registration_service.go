// registration/service/registration_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackbits/registration-service/registration/notify"
	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// maxAllocationRetries bounds the registration-number retry loop. Drawing a
// fresh sequence value resolves an allocation race, so hitting the bound
// means something is genuinely broken.
const maxAllocationRetries = 3

// RegistrationService creates team aggregates. Uniqueness of team names,
// registration numbers and participants is enforced by the store's unique
// indexes; this layer only classifies the outcomes.
type RegistrationService struct {
	teams    TeamStore
	seq      SequenceStore
	notifier notify.Notifier
	log      *logger.Logger
}

// NewRegistrationService creates a new RegistrationService instance.
func NewRegistrationService(teams TeamStore, seq SequenceStore, notifier notify.Notifier, log *logger.Logger) *RegistrationService {
	return &RegistrationService{teams: teams, seq: seq, notifier: notifier, log: log}
}

// RegisterTeamInput is the validated input for a new registration.
type RegisterTeamInput struct {
	TeamName string
	Leader   models.Participant
	Members  []models.Participant
	TeamSize models.TeamSize
}

// RegisterTeam creates a new team, allocating its registration number. A
// registration-number collision (two instances drawing the same value before
// the counter existed) is retried with a fresh value up to
// maxAllocationRetries times.
func (rs *RegistrationService) RegisterTeam(ctx context.Context, input RegisterTeamInput) (*models.Team, error) {
	if !input.TeamSize.Valid() {
		return nil, ErrInvalidTier
	}
	if len(input.Members) > input.TeamSize.MaxMembers() {
		return nil, ErrMemberCount
	}

	participants := make([]string, 0, len(input.Members)+1)
	participants = append(participants, input.Leader.UserID)
	for _, m := range input.Members {
		participants = append(participants, m.UserID)
	}

	var lastErr error
	for attempt := 0; attempt < maxAllocationRetries; attempt++ {
		regNum, err := rs.seq.NextRegistrationNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate registration number: %w", err)
		}

		now := time.Now()
		team := &models.Team{
			ID:                 uuid.NewString(),
			TeamName:           input.TeamName,
			RegistrationNumber: regNum,
			Leader:             input.Leader,
			Members:            input.Members,
			Participants:       participants,
			TeamSize:           input.TeamSize,
			Status:             models.StatusPending,
			PaymentStatus:      models.PaymentPending,
			PaymentAmount:      input.TeamSize.Amount(),
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		err = rs.teams.Create(ctx, team)
		switch {
		case err == nil:
			rs.log.Infow("team registered",
				"team_id", team.ID,
				"team_name", team.TeamName,
				"registration_number", team.RegistrationNumber,
				"team_size", team.TeamSize,
			)
			rs.dispatchRegistered(team)
			return team, nil
		case errors.Is(err, store.ErrDuplicateTeamName):
			return nil, ErrDuplicateTeamName
		case errors.Is(err, store.ErrDuplicateParticipant):
			return nil, ErrAlreadyRegistered
		case errors.Is(err, store.ErrDuplicateRegistration):
			// Allocation raced with another instance; draw again.
			lastErr = err
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("registration number allocation exhausted %d retries: %w", maxAllocationRetries, lastErr)
}

// dispatchRegistered fires the confirmation mail without blocking the
// registration path.
func (rs *RegistrationService) dispatchRegistered(team *models.Team) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rs.notifier.TeamRegistered(ctx, team); err != nil {
			rs.log.Warnw("registration notification failed",
				"team_id", team.ID, "error", err)
		}
	}()
}

// GetTeam retrieves a team by id.
func (rs *RegistrationService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := rs.teams.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	return team, err
}

// GetTeamByRegistrationNumber retrieves a team by its registration number.
func (rs *RegistrationService) GetTeamByRegistrationNumber(ctx context.Context, regNum string) (*models.Team, error) {
	team, err := rs.teams.GetByRegistrationNumber(ctx, regNum)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	return team, err
}

// GetTeamByParticipant retrieves the team a user belongs to, if any.
func (rs *RegistrationService) GetTeamByParticipant(ctx context.Context, userID string) (*models.Team, error) {
	team, err := rs.teams.GetByParticipant(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	return team, err
}

// ListTeams returns all teams, optionally filtered by payment sub-state.
func (rs *RegistrationService) ListTeams(ctx context.Context, status models.PaymentStatus) ([]models.Team, error) {
	if status == "" {
		return rs.teams.List(ctx)
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return rs.teams.ListByPaymentStatus(ctx, status)
}
