// registration/store/memory.go
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hackbits/registration-service/shared/models"
)

// MemoryTeamStore is an in-memory TeamStore with the same conditional-update
// semantics as the MongoDB store. Used by tests and local development; a
// single mutex makes every operation atomic.
type MemoryTeamStore struct {
	mu    sync.Mutex
	teams map[string]*models.Team
}

// NewMemoryTeamStore creates an empty in-memory store.
func NewMemoryTeamStore() *MemoryTeamStore {
	return &MemoryTeamStore{teams: make(map[string]*models.Team)}
}

func cloneTeam(t *models.Team) *models.Team {
	cp := *t
	cp.Members = append([]models.Participant(nil), t.Members...)
	cp.Participants = append([]string(nil), t.Participants...)
	cp.CheckInHistory = append([]models.CheckInEntry(nil), t.CheckInHistory...)
	if t.Proof != nil {
		proof := *t.Proof
		if t.Proof.Gateway != nil {
			g := *t.Proof.Gateway
			proof.Gateway = &g
		}
		if t.Proof.Manual != nil {
			m := *t.Proof.Manual
			proof.Manual = &m
		}
		cp.Proof = &proof
	}
	return &cp
}

// Create inserts a team, enforcing the same uniqueness rules as the Mongo
// indexes.
func (ms *MemoryTeamStore) Create(_ context.Context, team *models.Team) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, existing := range ms.teams {
		if existing.TeamName == team.TeamName {
			return ErrDuplicateTeamName
		}
		if existing.RegistrationNumber == team.RegistrationNumber {
			return ErrDuplicateRegistration
		}
		for _, p := range existing.Participants {
			for _, q := range team.Participants {
				if p == q {
					return ErrDuplicateParticipant
				}
			}
		}
	}
	ms.teams[team.ID] = cloneTeam(team)
	return nil
}

// GetByID retrieves a team by id.
func (ms *MemoryTeamStore) GetByID(_ context.Context, id string) (*models.Team, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTeam(team), nil
}

// GetByRegistrationNumber retrieves a team by registration number.
func (ms *MemoryTeamStore) GetByRegistrationNumber(_ context.Context, regNum string) (*models.Team, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, team := range ms.teams {
		if team.RegistrationNumber == regNum {
			return cloneTeam(team), nil
		}
	}
	return nil, ErrNotFound
}

// GetByParticipant retrieves the team a user belongs to, if any.
func (ms *MemoryTeamStore) GetByParticipant(_ context.Context, userID string) (*models.Team, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, team := range ms.teams {
		for _, p := range team.Participants {
			if p == userID {
				return cloneTeam(team), nil
			}
		}
	}
	return nil, ErrNotFound
}

// List returns all teams, newest first.
func (ms *MemoryTeamStore) List(_ context.Context) ([]models.Team, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	teams := make([]models.Team, 0, len(ms.teams))
	for _, team := range ms.teams {
		teams = append(teams, *cloneTeam(team))
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].CreatedAt.After(teams[j].CreatedAt) })
	return teams, nil
}

// ListByPaymentStatus returns teams in the given payment sub-state.
func (ms *MemoryTeamStore) ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]models.Team, error) {
	all, _ := ms.List(ctx)
	var out []models.Team
	for _, team := range all {
		if team.PaymentStatus == status {
			out = append(out, team)
		}
	}
	return out, nil
}

// ListCheckedIn returns checked-in teams, most recent check-in first.
func (ms *MemoryTeamStore) ListCheckedIn(_ context.Context) ([]models.Team, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []models.Team
	for _, team := range ms.teams {
		if team.CheckedIn {
			out = append(out, *cloneTeam(team))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CheckInTime, out[j].CheckInTime
		if ti == nil || tj == nil {
			return tj == nil
		}
		return ti.After(*tj)
	})
	return out, nil
}

// SetGatewayOrder records a checkout order unless payment is verified.
func (ms *MemoryTeamStore) SetGatewayOrder(_ context.Context, id, orderID string, amount int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok || team.PaymentStatus == models.PaymentVerified {
		return ErrPreconditionFailed
	}
	team.GatewayOrderID = orderID
	team.PaymentAmount = amount
	team.UpdatedAt = time.Now()
	return nil
}

// SetGatewayProof records the gateway proof triple.
func (ms *MemoryTeamStore) SetGatewayProof(_ context.Context, id string, proof models.GatewayProof, completedAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok || team.PaymentStatus == models.PaymentVerified || team.GatewayOrderID != proof.OrderID {
		return ErrPreconditionFailed
	}
	p := proof
	team.Proof = &models.PaymentProof{Kind: models.ProofGateway, Gateway: &p}
	team.PaymentCompletedAt = &completedAt
	team.UpdatedAt = time.Now()
	return nil
}

// SetManualProof records a manual transaction id.
func (ms *MemoryTeamStore) SetManualProof(_ context.Context, id, transactionID string, amount int64, completedAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok || team.PaymentStatus == models.PaymentVerified {
		return ErrPreconditionFailed
	}
	team.Proof = &models.PaymentProof{
		Kind:   models.ProofManual,
		Manual: &models.ManualProof{TransactionID: transactionID},
	}
	team.PaymentAmount = amount
	team.PaymentCompletedAt = &completedAt
	team.UpdatedAt = time.Now()
	return nil
}

// SetDocuments records uploaded proof artifacts.
func (ms *MemoryTeamStore) SetDocuments(_ context.Context, id string, docs DocumentRefs, uploadedAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok || !team.HasPaymentProof() {
		return ErrPreconditionFailed
	}
	team.PaymentScreenshotURL = docs.PaymentScreenshotURL
	team.PaymentScreenshotKey = docs.PaymentScreenshotKey
	team.IDCardURL = docs.IDCardURL
	team.IDCardKey = docs.IDCardKey
	team.DocumentsUploadedAt = &uploadedAt
	team.UpdatedAt = time.Now()
	return nil
}

// MarkVerified applies the verified transition under the same guards as the
// Mongo store.
func (ms *MemoryTeamStore) MarkVerified(_ context.Context, id string, issue TicketIssue) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok || !team.HasDocuments() || !team.HasPaymentProof() {
		return ErrPreconditionFailed
	}
	if issue.FirstIssue {
		if team.TicketNumber != "" {
			return ErrPreconditionFailed
		}
		team.CheckedIn = false
	} else if team.TicketNumber != issue.TicketNumber {
		return ErrPreconditionFailed
	}

	verifiedAt := issue.VerifiedAt
	team.PaymentStatus = models.PaymentVerified
	team.Status = models.StatusApproved
	team.TicketNumber = issue.TicketNumber
	team.TicketQRPayload = issue.QRPayload
	team.TicketQRCode = issue.QRCode
	team.TicketDocument = issue.Document
	team.VerifiedAt = &verifiedAt
	team.VerifiedBy = issue.VerifiedBy
	team.RejectionReason = ""
	team.UpdatedAt = time.Now()
	return nil
}

// MarkRejected applies the rejected transition.
func (ms *MemoryTeamStore) MarkRejected(_ context.Context, id, reason string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok {
		return ErrPreconditionFailed
	}
	team.PaymentStatus = models.PaymentRejected
	team.Status = models.StatusRejected
	team.RejectionReason = reason
	team.TicketNumber = ""
	team.TicketQRPayload = ""
	team.TicketQRCode = ""
	team.TicketDocument = ""
	team.VerifiedAt = nil
	team.VerifiedBy = ""
	team.CheckedIn = false
	team.CheckInTime = nil
	team.CheckedInBy = ""
	team.UpdatedAt = time.Now()
	return nil
}

// MarkPending resets the payment sub-state.
func (ms *MemoryTeamStore) MarkPending(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok {
		return ErrPreconditionFailed
	}
	team.PaymentStatus = models.PaymentPending
	team.Status = models.StatusPending
	team.RejectionReason = ""
	team.UpdatedAt = time.Now()
	return nil
}

// CheckIn applies the guarded admission write.
func (ms *MemoryTeamStore) CheckIn(_ context.Context, regNum, adminID, method string, at time.Time) (*models.Team, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, team := range ms.teams {
		if team.RegistrationNumber != regNum {
			continue
		}
		if team.PaymentStatus != models.PaymentVerified || team.CheckedIn {
			return nil, ErrPreconditionFailed
		}
		checkInAt := at
		team.CheckedIn = true
		team.CheckInTime = &checkInAt
		team.CheckedInBy = adminID
		team.CheckInCount++
		team.CheckInHistory = append(team.CheckInHistory, models.CheckInEntry{
			Timestamp:   at,
			CheckedInBy: adminID,
			Method:      method,
		})
		team.UpdatedAt = time.Now()
		return cloneTeam(team), nil
	}
	return nil, ErrPreconditionFailed
}

// UndoCheckIn clears presence, keeping count and history.
func (ms *MemoryTeamStore) UndoCheckIn(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	team, ok := ms.teams[id]
	if !ok || !team.CheckedIn {
		return ErrPreconditionFailed
	}
	team.CheckedIn = false
	team.CheckInTime = nil
	team.CheckedInBy = ""
	team.UpdatedAt = time.Now()
	return nil
}

// Counts computes the dashboard aggregates.
func (ms *MemoryTeamStore) Counts(_ context.Context) (Counts, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var c Counts
	for _, team := range ms.teams {
		c.Total++
		switch team.PaymentStatus {
		case models.PaymentVerified:
			c.Verified++
		case models.PaymentPending:
			c.Pending++
		case models.PaymentRejected:
			c.Rejected++
		}
		if team.CheckedIn {
			c.CheckedIn++
		}
		if team.HasPaymentProof() {
			c.PaymentsCompleted++
		}
		if team.HasDocuments() {
			c.DocumentsUploaded++
		}
	}
	return c, nil
}

// MemoryCounterStore is an in-memory identity allocator for tests.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]int64)}
}

// NextRegistrationNumber issues the next registration number.
func (mc *MemoryCounterStore) NextRegistrationNumber(_ context.Context) (string, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[SeqRegistration]++
	return fmt.Sprintf("TEAM%04d", mc.counters[SeqRegistration]), nil
}

// NextTicketNumber issues the next ticket number.
func (mc *MemoryCounterStore) NextTicketNumber(_ context.Context) (string, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[SeqTicket]++
	return fmt.Sprintf("HACK%d-%03d", time.Now().Year(), mc.counters[SeqTicket]), nil
}
