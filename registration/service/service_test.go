// registration/service/service_test.go
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hackbits/registration-service/registration/gateway"
	"github.com/hackbits/registration-service/registration/notify"
	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/registration/ticket"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// fixture wires the full service set over in-memory stores.
type fixture struct {
	teams        *store.MemoryTeamStore
	counters     *store.MemoryCounterStore
	gateway      *fakeGateway
	registration *RegistrationService
	payments     *PaymentService
	verification *VerificationService
	checkins     *CheckinService
}

func newFixture() *fixture {
	teams := store.NewMemoryTeamStore()
	counters := store.NewMemoryCounterStore()
	gw := newFakeGateway("test-secret")
	log := logger.NewNop()
	notifier := notify.NopNotifier{}

	gen := ticket.NewGenerator(staticEncoder{}, ticket.EventInfo{
		Name:  "HACKATHON 2025",
		Venue: "Main Hall",
	})

	return &fixture{
		teams:        teams,
		counters:     counters,
		gateway:      gw,
		registration: NewRegistrationService(teams, counters, notifier, log),
		payments:     NewPaymentService(teams, gw, log),
		verification: NewVerificationService(teams, counters, gen, notifier, log),
		checkins:     NewCheckinService(teams, nil, log),
	}
}

// registerTeam creates a team with distinct participant ids.
func (f *fixture) registerTeam(t interface{ Fatalf(string, ...interface{}) }, name, leaderID string) *models.Team {
	team, err := f.registration.RegisterTeam(context.Background(), RegisterTeamInput{
		TeamName: name,
		TeamSize: models.SizeSolo,
		Leader: models.Participant{
			UserID: leaderID,
			Name:   "Leader " + leaderID,
			Email:  leaderID + "@example.com",
		},
	})
	if err != nil {
		t.Fatalf("RegisterTeam(%s): %v", name, err)
	}
	return team
}

// readyForVerification walks a team through manual payment and document
// upload so verification preconditions hold.
func (f *fixture) readyForVerification(t interface{ Fatalf(string, ...interface{}) }, team *models.Team) {
	ctx := context.Background()
	if err := f.payments.RecordTransaction(ctx, team.ID, "UTR-"+team.ID[:8], 500); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	err := f.teams.SetDocuments(ctx, team.ID, store.DocumentRefs{
		PaymentScreenshotURL: "mem://" + team.ID + "/payment",
		PaymentScreenshotKey: team.ID + "/payment",
		IDCardURL:            "mem://" + team.ID + "/idcard",
		IDCardKey:            team.ID + "/idcard",
	}, time.Now())
	if err != nil {
		t.Fatalf("SetDocuments: %v", err)
	}
}

// staticEncoder makes ticket rendering deterministic in tests.
type staticEncoder struct{}

func (staticEncoder) Encode(payload string, _ int) (string, error) {
	return "data:image/png;base64,qr-for-" + fmt.Sprintf("%d", len(payload)), nil
}

// fakeGateway is an in-memory gateway.Client with real HMAC semantics.
type fakeGateway struct {
	secret   string
	orders   int
	payments map[string]*gateway.Payment
}

func newFakeGateway(secret string) *fakeGateway {
	return &fakeGateway{secret: secret, payments: make(map[string]*gateway.Payment)}
}

func (fg *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (*gateway.Order, error) {
	fg.orders++
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%03d", fg.orders),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (fg *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.Payment, error) {
	p, ok := fg.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found at gateway", paymentID)
	}
	return p, nil
}

func (fg *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signFor(fg.secret, orderID, paymentID) == signature
}

// signFor computes the checkout signature the way the gateway does.
func signFor(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// capture registers a captured payment for the given order.
func (fg *fakeGateway) capture(orderID, paymentID string, amount int64) {
	fg.payments[paymentID] = &gateway.Payment{
		ID:      paymentID,
		OrderID: orderID,
		Amount:  amount,
		Status:  gateway.PaymentCaptured,
	}
}
