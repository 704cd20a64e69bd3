// registration/service/checkin_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// CheckinService is the venue admission ledger. The admitting write is a
// single conditional update in the store, so duplicate scans of the same
// ticket converge without double counting.
type CheckinService struct {
	teams TeamStore
	live  LiveStats
	log   *logger.Logger
}

// NewCheckinService creates a new CheckinService instance. live may be nil
// when no kiosk dashboard is deployed.
func NewCheckinService(teams TeamStore, live LiveStats, log *logger.Logger) *CheckinService {
	return &CheckinService{teams: teams, live: live, log: log}
}

// CheckInResult distinguishes a fresh admission from an idempotent
// duplicate. On a duplicate the team carries the original check-in time
// and count, untouched.
type CheckInResult struct {
	Team             *models.Team
	AlreadyCheckedIn bool
}

// CheckIn admits the team registered under regNum. A duplicate call (or a
// concurrent race on the same ticket) returns the existing check-in state
// instead of an error; exactly one call ever increments the counter.
func (cs *CheckinService) CheckIn(ctx context.Context, regNum, adminID, method string) (*CheckInResult, error) {
	now := time.Now()
	team, err := cs.teams.CheckIn(ctx, regNum, adminID, method, now)
	if err == nil {
		cs.log.Audit("team checked in",
			"registration_number", regNum,
			"team_name", team.TeamName,
			"admin_id", adminID,
			"method", method,
		)
		cs.publishCheckin(team)
		return &CheckInResult{Team: team}, nil
	}
	if !errors.Is(err, store.ErrPreconditionFailed) {
		return nil, err
	}

	// The guard missed. Re-read to tell which precondition failed.
	team, err = cs.teams.GetByRegistrationNumber(ctx, regNum)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	if team.PaymentStatus != models.PaymentVerified {
		return nil, ErrNotVerified
	}
	if team.CheckedIn {
		return &CheckInResult{Team: team, AlreadyCheckedIn: true}, nil
	}
	// Guard state changed again between the write and our read; treat as
	// not verified rather than invent a state.
	return nil, ErrNotVerified
}

// publishCheckin pushes the admission onto the live kiosk feed. Best
// effort only; MongoDB stays the source of truth.
func (cs *CheckinService) publishCheckin(team *models.Team) {
	if cs.live == nil {
		return
	}
	entry := store.RecentCheckin{
		TeamName:           team.TeamName,
		RegistrationNumber: team.RegistrationNumber,
		CheckedInBy:        team.CheckedInBy,
	}
	if team.CheckInTime != nil {
		entry.CheckInTime = *team.CheckInTime
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cs.live.RecordCheckin(ctx, entry); err != nil {
			cs.log.Warnw("failed to publish live check-in",
				"registration_number", entry.RegistrationNumber, "error", err)
		}
	}()
}

// UndoCheckIn clears presence for a checked-in team. The cumulative counter
// and the audit history stay as they are.
func (cs *CheckinService) UndoCheckIn(ctx context.Context, teamID string) (*models.Team, error) {
	err := cs.teams.UndoCheckIn(ctx, teamID)
	if errors.Is(err, store.ErrPreconditionFailed) {
		// Either not found or not currently checked in.
		team, getErr := cs.teams.GetByID(ctx, teamID)
		if errors.Is(getErr, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		if getErr != nil {
			return nil, getErr
		}
		if !team.CheckedIn {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	team, err := cs.teams.GetByID(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	cs.log.Audit("check-in undone",
		"team_id", team.ID, "registration_number", team.RegistrationNumber)
	return team, nil
}

// VerifyResult is the read-only admission preflight answer.
type VerifyResult struct {
	CanCheckIn       bool                 `json:"canCheckIn"`
	AlreadyCheckedIn bool                 `json:"alreadyCheckedIn"`
	PaymentStatus    models.PaymentStatus `json:"paymentStatus"`
	TeamName         string               `json:"teamName"`
}

// Verify answers whether the team could be checked in right now. No side
// effects; safe to poll from kiosk devices.
func (cs *CheckinService) Verify(ctx context.Context, regNum string) (*VerifyResult, error) {
	team, err := cs.teams.GetByRegistrationNumber(ctx, regNum)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		CanCheckIn:       team.PaymentStatus == models.PaymentVerified && !team.CheckedIn,
		AlreadyCheckedIn: team.CheckedIn,
		PaymentStatus:    team.PaymentStatus,
		TeamName:         team.TeamName,
	}, nil
}

// Stats is the dashboard aggregate view, combining the durable counts with
// the best-effort live feed.
type Stats struct {
	Counts store.Counts          `json:"counts"`
	Live   int64                 `json:"liveCheckins"`
	Recent []store.RecentCheckin `json:"recentCheckins"`
}

// Stats computes the dashboard aggregates. Live-feed failures degrade to
// zero values rather than failing the whole call.
func (cs *CheckinService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := cs.teams.Counts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Counts: counts, Recent: []store.RecentCheckin{}}
	if cs.live != nil {
		if total, err := cs.live.Total(ctx); err == nil {
			stats.Live = total
		} else {
			cs.log.Warnw("failed to read live check-in total", "error", err)
		}
		if recent, err := cs.live.Recent(ctx); err == nil {
			stats.Recent = recent
		} else {
			cs.log.Warnw("failed to read recent check-ins", "error", err)
		}
	}
	return stats, nil
}

// History returns the append-only check-in audit log for a team.
func (cs *CheckinService) History(ctx context.Context, regNum string) ([]models.CheckInEntry, error) {
	team, err := cs.teams.GetByRegistrationNumber(ctx, regNum)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return team.CheckInHistory, nil
}

// ListCheckedIn returns all currently checked-in teams.
func (cs *CheckinService) ListCheckedIn(ctx context.Context) ([]models.Team, error) {
	return cs.teams.ListCheckedIn(ctx)
}
