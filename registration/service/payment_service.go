// registration/service/payment_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackbits/registration-service/registration/gateway"
	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// PaymentService runs the two proof paths: gateway checkout with signature
// and capture verification, and manually-recorded bank transactions.
// Neither path ever sets the payment sub-state to verified; that decision
// belongs to the verification flow alone.
type PaymentService struct {
	teams   TeamStore
	gateway gateway.Client
	log     *logger.Logger
}

// NewPaymentService creates a new PaymentService instance.
func NewPaymentService(teams TeamStore, gw gateway.Client, log *logger.Logger) *PaymentService {
	return &PaymentService{teams: teams, gateway: gw, log: log}
}

// OrderResult is the client-facing view of a created checkout order.
type OrderResult struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder creates a gateway checkout order for the team's tier price
// and records it on the aggregate.
func (ps *PaymentService) CreateOrder(ctx context.Context, teamID string) (*OrderResult, error) {
	team, err := ps.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.PaymentStatus == models.PaymentVerified {
		return nil, ErrAlreadyVerified
	}

	amount := team.TeamSize.Amount()
	order, err := ps.gateway.CreateOrder(ctx, amount, "INR", team.RegistrationNumber, map[string]string{
		"team_id":   team.ID,
		"team_name": team.TeamName,
	})
	if err != nil {
		return nil, err
	}

	err = ps.teams.SetGatewayOrder(ctx, team.ID, order.ID, amount)
	if errors.Is(err, store.ErrPreconditionFailed) {
		// Verified between our read and the write.
		return nil, ErrAlreadyVerified
	}
	if err != nil {
		return nil, err
	}

	ps.log.Infow("payment order created",
		"team_id", team.ID, "order_id", order.ID, "amount", amount)
	return &OrderResult{OrderID: order.ID, Amount: amount, Currency: order.Currency}, nil
}

// SubmitProof completes the gateway path: the checkout signature is
// recomputed locally and the payment's remote status must be captured.
// A signed-but-uncaptured or captured-but-unsigned payment both fail.
func (ps *PaymentService) SubmitProof(ctx context.Context, teamID, orderID, paymentID, signature string) error {
	team, err := ps.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.PaymentStatus == models.PaymentVerified {
		return ErrAlreadyVerified
	}
	if team.GatewayOrderID == "" {
		return ErrPaymentNotStarted
	}

	if !ps.gateway.VerifySignature(orderID, paymentID, signature) {
		ps.log.Warnw("payment signature mismatch",
			"team_id", team.ID, "order_id", orderID, "payment_id", paymentID)
		return ErrSignatureMismatch
	}

	payment, err := ps.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status != gateway.PaymentCaptured {
		return fmt.Errorf("%w: remote status %q", ErrPaymentNotCaptured, payment.Status)
	}

	proof := models.GatewayProof{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: signature,
	}
	err = ps.teams.SetGatewayProof(ctx, team.ID, proof, time.Now())
	if errors.Is(err, store.ErrPreconditionFailed) {
		// Either the order id does not match the one we created or the
		// payment was verified concurrently.
		if team.GatewayOrderID != orderID {
			return ErrPaymentNotStarted
		}
		return ErrAlreadyVerified
	}
	if err != nil {
		return err
	}

	ps.log.Infow("gateway payment proof recorded",
		"team_id", team.ID, "order_id", orderID, "payment_id", paymentID)
	return nil
}

// RecordTransaction completes the manual path: the claimed bank transaction
// id is stored as-is for an admin to verify against bank records.
func (ps *PaymentService) RecordTransaction(ctx context.Context, teamID, transactionID string, amount int64) error {
	team, err := ps.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.PaymentStatus == models.PaymentVerified {
		return ErrAlreadyVerified
	}

	err = ps.teams.SetManualProof(ctx, team.ID, transactionID, amount, time.Now())
	if errors.Is(err, store.ErrPreconditionFailed) {
		return ErrAlreadyVerified
	}
	if err != nil {
		return err
	}

	ps.log.Infow("manual payment transaction recorded",
		"team_id", team.ID, "transaction_id", transactionID, "amount", amount)
	return nil
}

func (ps *PaymentService) getTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := ps.teams.GetByID(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	return team, err
}
