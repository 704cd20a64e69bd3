// registration/service/payment_service_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackbits/registration-service/shared/models"
)

func TestCreateOrderUsesTierPrice(t *testing.T) {
	f := newFixture()
	team := f.registerTeam(t, "Alpha", "u1")

	order, err := f.payments.CreateOrder(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SizeSolo.Amount(), order.Amount)
	assert.NotEmpty(t, order.OrderID)

	stored, err := f.teams.GetByID(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, stored.GatewayOrderID)
}

func TestSubmitProofAcceptsSignedCapturedPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")

	order, err := f.payments.CreateOrder(ctx, team.ID)
	require.NoError(t, err)
	f.gateway.capture(order.OrderID, "pay_001", order.Amount)

	sig := signFor("test-secret", order.OrderID, "pay_001")
	require.NoError(t, f.payments.SubmitProof(ctx, team.ID, order.OrderID, "pay_001", sig))

	stored, err := f.teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	require.True(t, stored.HasPaymentProof())
	assert.Equal(t, models.ProofGateway, stored.Proof.Kind)
	assert.Equal(t, "pay_001", stored.Proof.Gateway.PaymentID)
	assert.NotNil(t, stored.PaymentCompletedAt)
	// Proof alone never verifies the payment.
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
}

func TestSubmitProofRejectsBadSignature(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")

	order, err := f.payments.CreateOrder(ctx, team.ID)
	require.NoError(t, err)
	f.gateway.capture(order.OrderID, "pay_001", order.Amount)

	err = f.payments.SubmitProof(ctx, team.ID, order.OrderID, "pay_001", "forged")
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	stored, err := f.teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPaymentProof())
}

func TestSubmitProofRejectsUncapturedPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")

	order, err := f.payments.CreateOrder(ctx, team.ID)
	require.NoError(t, err)
	f.gateway.capture(order.OrderID, "pay_001", order.Amount)
	f.gateway.payments["pay_001"].Status = "authorized"

	sig := signFor("test-secret", order.OrderID, "pay_001")
	err = f.payments.SubmitProof(ctx, team.ID, order.OrderID, "pay_001", sig)
	assert.ErrorIs(t, err, ErrPaymentNotCaptured)
}

func TestSubmitProofRequiresAnOrder(t *testing.T) {
	f := newFixture()
	team := f.registerTeam(t, "Alpha", "u1")

	sig := signFor("test-secret", "order_999", "pay_001")
	err := f.payments.SubmitProof(context.Background(), team.ID, "order_999", "pay_001", sig)
	assert.ErrorIs(t, err, ErrPaymentNotStarted)
}

func TestRecordTransactionStoresManualProof(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")

	require.NoError(t, f.payments.RecordTransaction(ctx, team.ID, "UTR123", 500))

	stored, err := f.teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	require.True(t, stored.HasPaymentProof())
	assert.Equal(t, models.ProofManual, stored.Proof.Kind)
	assert.Equal(t, "UTR123", stored.Proof.Manual.TransactionID)
	assert.Equal(t, int64(500), stored.PaymentAmount)
	assert.NotNil(t, stored.PaymentCompletedAt)
}

func TestPaymentPathsRejectVerifiedTeams(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	team := f.registerTeam(t, "Alpha", "u1")
	f.readyForVerification(t, team)
	_, err := f.verification.SetPaymentStatus(ctx, team.ID, models.PaymentVerified, "", "admin1")
	require.NoError(t, err)

	_, err = f.payments.CreateOrder(ctx, team.ID)
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	err = f.payments.RecordTransaction(ctx, team.ID, "UTR999", 500)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestPaymentOperationsOnUnknownTeam(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.payments.CreateOrder(ctx, "missing")
	assert.ErrorIs(t, err, ErrTeamNotFound)

	err = f.payments.RecordTransaction(ctx, "missing", "UTR123", 500)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}
