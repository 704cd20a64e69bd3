// registration/store/team_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hackbits/registration-service/shared/models"
)

// Index names on the teams collection for duplicate-key classification.
const (
	idxTeamName     = "team_name_1"
	idxRegistration = "registration_number_1"
	idxParticipants = "participants_1"
	idxTicket       = "ticket_number_1"
)

// DocumentRefs carries the blob handles recorded after a document upload.
type DocumentRefs struct {
	PaymentScreenshotURL string
	PaymentScreenshotKey string
	IDCardURL            string
	IDCardKey            string
}

// TicketIssue is the full set of fields written by a successful verification.
type TicketIssue struct {
	TicketNumber string
	QRPayload    string
	QRCode       string
	Document     string
	VerifiedBy   string
	VerifiedAt   time.Time
	// FirstIssue guards the ticket identity: when true the update only
	// matches a team with no ticket yet, when false it only matches a team
	// already holding exactly TicketNumber.
	FirstIssue bool
}

// Counts is the aggregate view backing the admin dashboard stats.
type Counts struct {
	Total             int64
	Verified          int64
	Pending           int64
	Rejected          int64
	CheckedIn         int64
	PaymentsCompleted int64
	DocumentsUploaded int64
}

// TeamStore is the MongoDB data store for team aggregates. All state
// transitions are single-document conditional updates; uniqueness is
// enforced by indexes, not application checks.
type TeamStore struct {
	collection *mongo.Collection
}

// NewTeamStore creates a new TeamStore instance.
func NewTeamStore(collection *mongo.Collection) *TeamStore {
	return &TeamStore{collection: collection}
}

// EnsureIndexes creates the unique indexes the registration invariants rely
// on. Called once at startup.
func (ts *TeamStore) EnsureIndexes(ctx context.Context) error {
	sparseTicket := options.Index().
		SetName(idxTicket).
		SetUnique(true).
		SetSparse(true)

	_, err := ts.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_name", Value: 1}},
			Options: options.Index().SetName(idxTeamName).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "registration_number", Value: 1}},
			Options: options.Index().SetName(idxRegistration).SetUnique(true),
		},
		{
			// Multikey unique index: no user id may appear in two teams.
			Keys:    bson.D{{Key: "participants", Value: 1}},
			Options: options.Index().SetName(idxParticipants).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "ticket_number", Value: 1}},
			Options: sparseTicket,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create team indexes: %w", err)
	}
	return nil
}

// classifyDuplicate maps a duplicate-key error to the sentinel for the
// violated index.
func classifyDuplicate(err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			switch {
			case strings.Contains(e.Message, idxTeamName):
				return ErrDuplicateTeamName
			case strings.Contains(e.Message, idxParticipants):
				return ErrDuplicateParticipant
			case strings.Contains(e.Message, idxRegistration):
				return ErrDuplicateRegistration
			}
		}
	}
	return err
}

// Create inserts a new team aggregate.
func (ts *TeamStore) Create(ctx context.Context, team *models.Team) error {
	_, err := ts.collection.InsertOne(ctx, team)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classifyDuplicate(err)
		}
		return fmt.Errorf("failed to create team %s: %w", team.TeamName, err)
	}
	return nil
}

// GetByID retrieves a team by its id.
func (ts *TeamStore) GetByID(ctx context.Context, id string) (*models.Team, error) {
	return ts.findOne(ctx, bson.M{"_id": id})
}

// GetByRegistrationNumber retrieves a team by its registration number.
func (ts *TeamStore) GetByRegistrationNumber(ctx context.Context, regNum string) (*models.Team, error) {
	return ts.findOne(ctx, bson.M{"registration_number": regNum})
}

// GetByParticipant retrieves the team a user leads or belongs to, if any.
func (ts *TeamStore) GetByParticipant(ctx context.Context, userID string) (*models.Team, error) {
	return ts.findOne(ctx, bson.M{"participants": userID})
}

func (ts *TeamStore) findOne(ctx context.Context, filter bson.M) (*models.Team, error) {
	var team models.Team
	err := ts.collection.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return &team, nil
}

// List returns all teams, newest first.
func (ts *TeamStore) List(ctx context.Context) ([]models.Team, error) {
	return ts.findMany(ctx, bson.M{}, bson.D{{Key: "created_at", Value: -1}})
}

// ListByPaymentStatus returns teams in the given payment sub-state, newest first.
func (ts *TeamStore) ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]models.Team, error) {
	return ts.findMany(ctx, bson.M{"payment_status": status}, bson.D{{Key: "created_at", Value: -1}})
}

// ListCheckedIn returns all checked-in teams, most recent check-in first.
func (ts *TeamStore) ListCheckedIn(ctx context.Context) ([]models.Team, error) {
	return ts.findMany(ctx, bson.M{"checked_in": true}, bson.D{{Key: "check_in_time", Value: -1}})
}

func (ts *TeamStore) findMany(ctx context.Context, filter bson.M, sort bson.D) ([]models.Team, error) {
	cursor, err := ts.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to find teams: %w", err)
	}
	defer cursor.Close(ctx)

	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}
	return teams, nil
}

// proofPresentFilter matches teams holding either proof variant.
func proofPresentFilter() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"proof.gateway.payment_id": bson.M{"$exists": true, "$ne": ""}},
		bson.M{"proof.manual.transaction_id": bson.M{"$exists": true, "$ne": ""}},
	}}
}

// SetGatewayOrder records a created checkout order and the expected amount.
// Refuses teams whose payment is already verified.
func (ts *TeamStore) SetGatewayOrder(ctx context.Context, id, orderID string, amount int64) error {
	filter := bson.M{
		"_id":            id,
		"payment_status": bson.M{"$ne": models.PaymentVerified},
	}
	update := bson.M{"$set": bson.M{
		"gateway_order_id": orderID,
		"payment_amount":   amount,
		"updated_at":       time.Now(),
	}}
	return ts.conditionalUpdate(ctx, filter, update)
}

// SetGatewayProof records the order/payment/signature triple and stamps
// payment completion. The payment sub-state stays pending; verification is
// a distinct administrative act.
func (ts *TeamStore) SetGatewayProof(ctx context.Context, id string, proof models.GatewayProof, completedAt time.Time) error {
	filter := bson.M{
		"_id":              id,
		"payment_status":   bson.M{"$ne": models.PaymentVerified},
		"gateway_order_id": proof.OrderID,
	}
	update := bson.M{"$set": bson.M{
		"proof": models.PaymentProof{
			Kind:    models.ProofGateway,
			Gateway: &proof,
		},
		"payment_completed_at": completedAt,
		"updated_at":           time.Now(),
	}}
	return ts.conditionalUpdate(ctx, filter, update)
}

// SetManualProof records a manually supplied bank transaction id.
func (ts *TeamStore) SetManualProof(ctx context.Context, id, transactionID string, amount int64, completedAt time.Time) error {
	filter := bson.M{
		"_id":            id,
		"payment_status": bson.M{"$ne": models.PaymentVerified},
	}
	update := bson.M{"$set": bson.M{
		"proof": models.PaymentProof{
			Kind:   models.ProofManual,
			Manual: &models.ManualProof{TransactionID: transactionID},
		},
		"payment_amount":       amount,
		"payment_completed_at": completedAt,
		"updated_at":           time.Now(),
	}}
	return ts.conditionalUpdate(ctx, filter, update)
}

// SetDocuments records freshly uploaded proof artifacts. Requires a payment
// proof to already be present so documents can never precede payment.
func (ts *TeamStore) SetDocuments(ctx context.Context, id string, docs DocumentRefs, uploadedAt time.Time) error {
	filter := bson.M{"_id": id}
	for k, v := range proofPresentFilter() {
		filter[k] = v
	}
	update := bson.M{"$set": bson.M{
		"payment_screenshot_url": docs.PaymentScreenshotURL,
		"payment_screenshot_key": docs.PaymentScreenshotKey,
		"id_card_url":            docs.IDCardURL,
		"id_card_key":            docs.IDCardKey,
		"documents_uploaded_at":  uploadedAt,
		"updated_at":             time.Now(),
	}}
	return ts.conditionalUpdate(ctx, filter, update)
}

// MarkVerified performs the verified transition as one conditional update.
// The filter re-checks every precondition (documents uploaded, payment proof
// present, expected ticket state) so a concurrent change makes the whole
// operation fail cleanly instead of half-applying.
func (ts *TeamStore) MarkVerified(ctx context.Context, id string, issue TicketIssue) error {
	filter := bson.M{
		"_id":                    id,
		"payment_screenshot_url": bson.M{"$exists": true, "$ne": ""},
		"id_card_url":            bson.M{"$exists": true, "$ne": ""},
	}
	for k, v := range proofPresentFilter() {
		filter[k] = v
	}
	if issue.FirstIssue {
		// $in with null matches both an explicit null and a missing field.
		filter["ticket_number"] = bson.M{"$in": bson.A{nil, ""}}
	} else {
		filter["ticket_number"] = issue.TicketNumber
	}

	set := bson.M{
		"payment_status":    models.PaymentVerified,
		"status":            models.StatusApproved,
		"ticket_number":     issue.TicketNumber,
		"ticket_qr_payload": issue.QRPayload,
		"ticket_qr_code":    issue.QRCode,
		"ticket_document":   issue.Document,
		"verified_at":       issue.VerifiedAt,
		"verified_by":       issue.VerifiedBy,
		"updated_at":        time.Now(),
	}
	if issue.FirstIssue {
		// Only a first-time issue resets presence; re-running verification
		// must not clobber an already-checked-in team.
		set["checked_in"] = false
	}
	update := bson.M{
		"$set":   set,
		"$unset": bson.M{"rejection_reason": ""},
	}
	return ts.conditionalUpdate(ctx, filter, update)
}

// MarkRejected performs the rejected transition: the ticket identity and
// verification stamps are cleared so a later re-verification issues a fresh
// ticket. Presence is cleared too, keeping "checked in implies verified"
// true; the audit history and counter are never touched.
func (ts *TeamStore) MarkRejected(ctx context.Context, id, reason string) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"payment_status":   models.PaymentRejected,
			"status":           models.StatusRejected,
			"rejection_reason": reason,
			"checked_in":       false,
			"updated_at":       time.Now(),
		},
		"$unset": bson.M{
			"ticket_number":     "",
			"ticket_qr_payload": "",
			"ticket_qr_code":    "",
			"ticket_document":   "",
			"verified_at":       "",
			"verified_by":       "",
			"check_in_time":     "",
			"checked_in_by":     "",
		},
	}
	return ts.conditionalUpdate(ctx, filter, update)
}

// MarkPending resets the payment sub-state without side effects. Operator
// correction path.
func (ts *TeamStore) MarkPending(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"payment_status": models.PaymentPending,
			"status":         models.StatusPending,
			"updated_at":     time.Now(),
		},
		"$unset": bson.M{"rejection_reason": ""},
	}
	return ts.conditionalUpdate(ctx, filter, update)
}

// CheckIn is the venue admission write: one conditional update guarded by
// the pre-transition checked_in value, so two concurrent scans of the same
// QR converge to exactly one counted check-in. Returns the post-transition
// team on success, ErrPreconditionFailed when the guard missed.
func (ts *TeamStore) CheckIn(ctx context.Context, regNum, adminID, method string, at time.Time) (*models.Team, error) {
	filter := bson.M{
		"registration_number": regNum,
		"payment_status":      models.PaymentVerified,
		"checked_in":          false,
	}
	update := bson.M{
		"$set": bson.M{
			"checked_in":    true,
			"check_in_time": at,
			"checked_in_by": adminID,
			"updated_at":    time.Now(),
		},
		"$inc": bson.M{"check_in_count": int64(1)},
		"$push": bson.M{"check_in_history": models.CheckInEntry{
			Timestamp:   at,
			CheckedInBy: adminID,
			Method:      method,
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var team models.Team
	err := ts.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPreconditionFailed
		}
		return nil, fmt.Errorf("failed to check in team %s: %w", regNum, err)
	}
	return &team, nil
}

// UndoCheckIn clears presence but leaves check_in_count and the history
// untouched: they are a cumulative audit trail, not current presence.
func (ts *TeamStore) UndoCheckIn(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "checked_in": true}
	update := bson.M{
		"$set": bson.M{
			"checked_in": false,
			"updated_at": time.Now(),
		},
		"$unset": bson.M{
			"check_in_time": "",
			"checked_in_by": "",
		},
	}
	return ts.conditionalUpdate(ctx, filter, update)
}

// conditionalUpdate runs UpdateOne and maps a zero match count onto
// ErrPreconditionFailed.
func (ts *TeamStore) conditionalUpdate(ctx context.Context, filter, update bson.M) error {
	res, err := ts.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

// Counts computes the dashboard aggregates.
func (ts *TeamStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var err error

	count := func(filter bson.M) (int64, error) {
		return ts.collection.CountDocuments(ctx, filter)
	}

	if c.Total, err = count(bson.M{}); err != nil {
		return c, fmt.Errorf("failed to count teams: %w", err)
	}
	if c.Verified, err = count(bson.M{"payment_status": models.PaymentVerified}); err != nil {
		return c, fmt.Errorf("failed to count verified teams: %w", err)
	}
	if c.Pending, err = count(bson.M{"payment_status": models.PaymentPending}); err != nil {
		return c, fmt.Errorf("failed to count pending teams: %w", err)
	}
	if c.Rejected, err = count(bson.M{"payment_status": models.PaymentRejected}); err != nil {
		return c, fmt.Errorf("failed to count rejected teams: %w", err)
	}
	if c.CheckedIn, err = count(bson.M{"checked_in": true}); err != nil {
		return c, fmt.Errorf("failed to count checked-in teams: %w", err)
	}
	if c.PaymentsCompleted, err = count(proofPresentFilter()); err != nil {
		return c, fmt.Errorf("failed to count completed payments: %w", err)
	}
	if c.DocumentsUploaded, err = count(bson.M{
		"payment_screenshot_url": bson.M{"$exists": true, "$ne": ""},
		"id_card_url":            bson.M{"$exists": true, "$ne": ""},
	}); err != nil {
		return c, fmt.Errorf("failed to count document uploads: %w", err)
	}
	return c, nil
}
