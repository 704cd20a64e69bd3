// registration/service/checkin_service_test.go
package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackbits/registration-service/shared/models"
)

// verifiedTeam registers and verifies one team, returning its fresh state.
func verifiedTeam(t *testing.T, f *fixture, name, leaderID string) *models.Team {
	t.Helper()
	team := f.registerTeam(t, name, leaderID)
	f.readyForVerification(t, team)
	verified, err := f.verification.SetPaymentStatus(context.Background(), team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)
	return verified
}

func TestCheckInHappyPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := verifiedTeam(t, f, "Alpha", "u1")

	result, err := f.checkins.CheckIn(ctx, team.RegistrationNumber, "admin2", "qr_scan")
	require.NoError(t, err)
	assert.False(t, result.AlreadyCheckedIn)
	assert.True(t, result.Team.CheckedIn)
	assert.Equal(t, int64(1), result.Team.CheckInCount)
	assert.Equal(t, "admin2", result.Team.CheckedInBy)
	require.Len(t, result.Team.CheckInHistory, 1)
	assert.Equal(t, "qr_scan", result.Team.CheckInHistory[0].Method)
}

func TestCheckInDuplicateIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := verifiedTeam(t, f, "Alpha", "u1")

	first, err := f.checkins.CheckIn(ctx, team.RegistrationNumber, "admin2", "qr_scan")
	require.NoError(t, err)

	second, err := f.checkins.CheckIn(ctx, team.RegistrationNumber, "admin3", "qr_scan")
	require.NoError(t, err)
	assert.True(t, second.AlreadyCheckedIn)
	assert.Equal(t, int64(1), second.Team.CheckInCount)
	assert.Len(t, second.Team.CheckInHistory, 1)
	// The original admission stands untouched.
	assert.Equal(t, "admin2", second.Team.CheckedInBy)
	assert.Equal(t, first.Team.CheckInTime.Unix(), second.Team.CheckInTime.Unix())
}

func TestConcurrentCheckInsCountOnce(t *testing.T) {
	f := newFixture()
	team := verifiedTeam(t, f, "Alpha", "u1")

	const scanners = 16
	var wg sync.WaitGroup
	results := make([]*CheckInResult, scanners)
	errs := make([]error, scanners)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.checkins.CheckIn(context.Background(), team.RegistrationNumber, "kiosk", "qr_scan")
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i, res := range results {
		require.NoError(t, errs[i])
		if !res.AlreadyCheckedIn {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh, "exactly one scan may count")

	stored, err := f.teams.GetByRegistrationNumber(context.Background(), team.RegistrationNumber)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.CheckInCount)
	assert.Len(t, stored.CheckInHistory, 1)
}

func TestCheckInRequiresVerifiedPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")

	_, err := f.checkins.CheckIn(ctx, team.RegistrationNumber, "admin2", "qr_scan")
	assert.ErrorIs(t, err, ErrNotVerified)

	stored, err := f.teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CheckInHistory)
	assert.Zero(t, stored.CheckInCount)
}

func TestCheckInUnknownRegistration(t *testing.T) {
	f := newFixture()
	_, err := f.checkins.CheckIn(context.Background(), "TEAM9999", "admin2", "qr_scan")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestUndoCheckInKeepsAuditTrail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := verifiedTeam(t, f, "Alpha", "u1")
	_, err := f.checkins.CheckIn(ctx, team.RegistrationNumber, "admin2", "qr_scan")
	require.NoError(t, err)

	undone, err := f.checkins.UndoCheckIn(ctx, team.ID)
	require.NoError(t, err)
	assert.False(t, undone.CheckedIn)
	assert.Nil(t, undone.CheckInTime)
	assert.Empty(t, undone.CheckedInBy)
	// Count and history are cumulative; undo never rewrites them.
	assert.Equal(t, int64(1), undone.CheckInCount)
	assert.Len(t, undone.CheckInHistory, 1)

	// A later re-admission counts again.
	again, err := f.checkins.CheckIn(ctx, team.RegistrationNumber, "admin3", "manual")
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.Team.CheckInCount)
	assert.Len(t, again.Team.CheckInHistory, 2)
}

func TestUndoCheckInPreconditions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := verifiedTeam(t, f, "Alpha", "u1")

	_, err := f.checkins.UndoCheckIn(ctx, team.ID)
	assert.ErrorIs(t, err, ErrNotCheckedIn)

	_, err = f.checkins.UndoCheckIn(ctx, "missing")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestVerifyIsReadOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := verifiedTeam(t, f, "Alpha", "u1")

	for i := 0; i < 3; i++ {
		result, err := f.checkins.Verify(ctx, team.RegistrationNumber)
		require.NoError(t, err)
		assert.True(t, result.CanCheckIn)
		assert.False(t, result.AlreadyCheckedIn)
	}

	_, err := f.checkins.CheckIn(ctx, team.RegistrationNumber, "admin2", "qr_scan")
	require.NoError(t, err)

	result, err := f.checkins.Verify(ctx, team.RegistrationNumber)
	require.NoError(t, err)
	assert.False(t, result.CanCheckIn)
	assert.True(t, result.AlreadyCheckedIn)
}

func TestFullLifecycleScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	team := f.registerTeam(t, "Team0001", "leaderL")
	assert.Equal(t, "TEAM0001", team.RegistrationNumber)

	require.NoError(t, f.payments.RecordTransaction(ctx, team.ID, "UTR123", 500))
	f.readyForVerification(t, team)

	verified, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)
	assert.Regexp(t, `^HACK\d{4}-001$`, verified.TicketNumber)
	assert.False(t, verified.CheckedIn)

	first, err := f.checkins.CheckIn(ctx, "TEAM0001", "admin1", "qr_scan")
	require.NoError(t, err)
	assert.True(t, first.Team.CheckedIn)
	assert.Equal(t, int64(1), first.Team.CheckInCount)

	repeat, err := f.checkins.CheckIn(ctx, "TEAM0001", "admin1", "qr_scan")
	require.NoError(t, err)
	assert.True(t, repeat.AlreadyCheckedIn)
	assert.Equal(t, int64(1), repeat.Team.CheckInCount)
}

func TestStatsAggregatesCounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	verifiedTeam(t, f, "Alpha", "u1")
	b := verifiedTeam(t, f, "Beta", "u2")
	f.registerTeam(t, "Gamma", "u3")
	_, err := f.checkins.CheckIn(ctx, b.RegistrationNumber, "admin1", "qr_scan")
	require.NoError(t, err)

	stats, err := f.checkins.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Counts.Total)
	assert.Equal(t, int64(2), stats.Counts.Verified)
	assert.Equal(t, int64(1), stats.Counts.Pending)
	assert.Equal(t, int64(1), stats.Counts.CheckedIn)
	assert.Equal(t, int64(2), stats.Counts.DocumentsUploaded)
}
