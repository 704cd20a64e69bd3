// registration/service/verification_service_test.go
package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackbits/registration-service/shared/models"
)

func TestVerifyIssuesTicket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	f.readyForVerification(t, team)

	verified, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)

	expected := fmt.Sprintf("HACK%d-001", time.Now().Year())
	assert.Equal(t, expected, verified.TicketNumber)
	assert.Equal(t, models.PaymentVerified, verified.PaymentStatus)
	assert.Equal(t, models.StatusApproved, verified.Status)
	assert.Equal(t, "admin1", verified.VerifiedBy)
	assert.NotNil(t, verified.VerifiedAt)
	assert.NotEmpty(t, verified.TicketQRPayload)
	assert.NotEmpty(t, verified.TicketQRCode)
	assert.False(t, verified.CheckedIn)
}

func TestVerifyIsIdempotentOnTicketIdentity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	f.readyForVerification(t, team)

	first, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)
	second, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin2")
	require.NoError(t, err)

	assert.Equal(t, first.TicketNumber, second.TicketNumber)
	assert.Equal(t, first.TicketQRPayload, second.TicketQRPayload)
}

func TestVerifyWithoutDocumentsFailsUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	require.NoError(t, f.payments.RecordTransaction(ctx, team.ID, "UTR123", 500))

	_, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	assert.ErrorIs(t, err, ErrDocumentsMissing)

	stored, err := f.teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	assert.Empty(t, stored.TicketNumber)
}

func TestVerifyWithoutPaymentFails(t *testing.T) {
	f := newFixture()
	team := f.registerTeam(t, "Alpha", "u1")

	_, err := f.verification.SetPaymentStatus(context.Background(), team.ID, models.PaymentVerified, "", "admin1")
	assert.ErrorIs(t, err, ErrPaymentMissing)
}

func TestRejectClearsTicketAndStoresReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	f.readyForVerification(t, team)
	_, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)

	rejected, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentRejected, "amount mismatch", "admin1")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentRejected, rejected.PaymentStatus)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "amount mismatch", rejected.RejectionReason)
	assert.Empty(t, rejected.TicketNumber)
	assert.Empty(t, rejected.TicketQRPayload)
	assert.Nil(t, rejected.VerifiedAt)
	assert.Empty(t, rejected.VerifiedBy)
}

func TestRejectDefaultsReason(t *testing.T) {
	f := newFixture()
	team := f.registerTeam(t, "Alpha", "u1")

	rejected, err := f.verification.SetPaymentStatus(context.Background(), team.ID, models.PaymentRejected, "", "admin1")
	require.NoError(t, err)
	assert.NotEmpty(t, rejected.RejectionReason)
}

func TestReverifyAfterRejectionIssuesNewTicket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	f.readyForVerification(t, team)

	first, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)
	_, err = f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentRejected, "bad proof", "admin1")
	require.NoError(t, err)

	second, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)

	assert.NotEqual(t, first.TicketNumber, second.TicketNumber)
	assert.Empty(t, second.RejectionReason)
}

func TestPendingResetsWithoutSideEffects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	_, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentRejected, "oops", "admin1")
	require.NoError(t, err)

	reset, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentPending, "", "admin1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, reset.PaymentStatus)
	assert.Equal(t, models.StatusPending, reset.Status)
	assert.Empty(t, reset.RejectionReason)
}

func TestVerifyRejectsUnknownStatusAndTeam(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")

	_, err := f.verification.SetPaymentStatus(ctx, team.ID, "bogus", "", "admin1")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.verification.SetPaymentStatus(ctx, "missing", models.PaymentVerified, "", "admin1")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestReverifyKeepsCheckedInTeamCheckedIn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	f.readyForVerification(t, team)
	verified, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)

	_, err = f.checkins.CheckIn(ctx, verified.RegistrationNumber, "admin2", "qr_scan")
	require.NoError(t, err)

	again, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)
	assert.True(t, again.CheckedIn, "re-verification must not clear presence")
	assert.Equal(t, verified.TicketNumber, again.TicketNumber)
}

func TestTicketDocumentOnlyForVerifiedTeams(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")

	_, err := f.verification.TicketDocument(ctx, team.ID)
	assert.ErrorIs(t, err, ErrNotVerified)

	f.readyForVerification(t, team)
	_, err = f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)

	doc, err := f.verification.TicketDocument(ctx, team.ID)
	require.NoError(t, err)
	assert.Contains(t, doc, "Alpha")
}
