package models

import (
	"time"
)

// TeamSize is the registration tier a team signed up for. It fixes the
// expected payment amount and the member-count bound and is immutable
// after creation.
type TeamSize string

const (
	SizeSolo TeamSize = "Solo"
	SizeDuo  TeamSize = "Duo"
	SizeTeam TeamSize = "Team"
)

// Valid reports whether ts is one of the known tiers.
func (ts TeamSize) Valid() bool {
	switch ts {
	case SizeSolo, SizeDuo, SizeTeam:
		return true
	}
	return false
}

// Amount returns the registration fee for this tier in paise.
func (ts TeamSize) Amount() int64 {
	switch ts {
	case SizeSolo:
		return 50000
	case SizeDuo:
		return 80000
	case SizeTeam:
		return 120000
	}
	return 0
}

// MaxMembers returns how many members (excluding the leader) the tier allows.
func (ts TeamSize) MaxMembers() int {
	switch ts {
	case SizeSolo:
		return 0
	case SizeDuo:
		return 1
	case SizeTeam:
		return 3
	}
	return 0
}

// PaymentStatus is the payment sub-state of a team.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

// TeamStatus is the administrative superstate. The verification flow keeps it
// in lockstep with PaymentStatus (verified -> approved, rejected -> rejected).
type TeamStatus string

const (
	StatusPending  TeamStatus = "pending"
	StatusApproved TeamStatus = "approved"
	StatusRejected TeamStatus = "rejected"
)

// ProofKind tags which payment proof variant a team submitted. The two paths
// are mutually exclusive per team.
type ProofKind string

const (
	ProofGateway ProofKind = "gateway"
	ProofManual  ProofKind = "manual"
)

// GatewayProof is the order/payment/signature triple recorded after a
// gateway checkout passed the local signature check and the remote capture
// check.
type GatewayProof struct {
	OrderID   string `bson:"order_id" json:"orderId"`
	PaymentID string `bson:"payment_id" json:"paymentId"`
	Signature string `bson:"signature" json:"signature"`
}

// ManualProof is a bank transaction reference supplied by the team for
// offline payments. An admin verifies it against bank records.
type ManualProof struct {
	TransactionID string `bson:"transaction_id" json:"transactionId"`
}

// PaymentProof is a tagged variant holding exactly one of the two proof
// shapes, keyed by Kind.
type PaymentProof struct {
	Kind    ProofKind     `bson:"kind" json:"kind"`
	Gateway *GatewayProof `bson:"gateway,omitempty" json:"gateway,omitempty"`
	Manual  *ManualProof  `bson:"manual,omitempty" json:"manual,omitempty"`
}

// PaymentReference returns the identifier an admin would verify the payment
// by: the gateway payment id or the manual transaction id.
func (p *PaymentProof) PaymentReference() string {
	if p == nil {
		return ""
	}
	switch p.Kind {
	case ProofGateway:
		if p.Gateway != nil {
			return p.Gateway.PaymentID
		}
	case ProofManual:
		if p.Manual != nil {
			return p.Manual.TransactionID
		}
	}
	return ""
}

// Participant is an embedded reference to a registered user on a team.
type Participant struct {
	UserID string `bson:"user_id" json:"userId"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email" json:"email"`
}

// CheckInEntry is one line of the append-only check-in audit log.
type CheckInEntry struct {
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	CheckedInBy string    `bson:"checked_in_by" json:"checkedInBy"`
	Method      string    `bson:"method" json:"method"`
}

// Team is the registration aggregate stored in MongoDB. Every state
// transition on it is a single-document atomic update.
type Team struct {
	ID                 string        `bson:"_id" json:"id"`
	TeamName           string        `bson:"team_name" json:"teamName"`
	RegistrationNumber string        `bson:"registration_number" json:"registrationNumber"`
	Leader             Participant   `bson:"leader" json:"leader"`
	Members            []Participant `bson:"members" json:"members"`
	// Participants duplicates leader+member user ids so a unique multikey
	// index can enforce "one team per user" at the persistence layer.
	Participants []string `bson:"participants" json:"-"`
	TeamSize     TeamSize `bson:"team_size" json:"teamSize"`

	Status        TeamStatus    `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	PaymentAmount int64         `bson:"payment_amount,omitempty" json:"paymentAmount,omitempty"`

	// GatewayOrderID tracks a checkout order created but not yet proven.
	GatewayOrderID     string        `bson:"gateway_order_id,omitempty" json:"gatewayOrderId,omitempty"`
	Proof              *PaymentProof `bson:"proof,omitempty" json:"proof,omitempty"`
	PaymentCompletedAt *time.Time    `bson:"payment_completed_at,omitempty" json:"paymentCompletedAt,omitempty"`

	PaymentScreenshotURL string     `bson:"payment_screenshot_url,omitempty" json:"paymentScreenshotUrl,omitempty"`
	PaymentScreenshotKey string     `bson:"payment_screenshot_key,omitempty" json:"-"`
	IDCardURL            string     `bson:"id_card_url,omitempty" json:"idCardUrl,omitempty"`
	IDCardKey            string     `bson:"id_card_key,omitempty" json:"-"`
	DocumentsUploadedAt  *time.Time `bson:"documents_uploaded_at,omitempty" json:"documentsUploadedAt,omitempty"`

	VerifiedAt      *time.Time `bson:"verified_at,omitempty" json:"verifiedAt,omitempty"`
	VerifiedBy      string     `bson:"verified_by,omitempty" json:"verifiedBy,omitempty"`
	RejectionReason string     `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`

	TicketNumber    string `bson:"ticket_number,omitempty" json:"ticketNumber,omitempty"`
	TicketQRPayload string `bson:"ticket_qr_payload,omitempty" json:"ticketQrPayload,omitempty"`
	TicketQRCode    string `bson:"ticket_qr_code,omitempty" json:"ticketQrCode,omitempty"`
	TicketDocument  string `bson:"ticket_document,omitempty" json:"-"`

	CheckedIn      bool           `bson:"checked_in" json:"checkedIn"`
	CheckInTime    *time.Time     `bson:"check_in_time,omitempty" json:"checkInTime,omitempty"`
	CheckedInBy    string         `bson:"checked_in_by,omitempty" json:"checkedInBy,omitempty"`
	CheckInCount   int64          `bson:"check_in_count" json:"checkInCount"`
	CheckInHistory []CheckInEntry `bson:"check_in_history,omitempty" json:"checkInHistory,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasPaymentProof reports whether either proof path has been recorded.
func (t *Team) HasPaymentProof() bool {
	return t.Proof.PaymentReference() != ""
}

// HasDocuments reports whether both proof artifacts have been uploaded.
func (t *Team) HasDocuments() bool {
	return t.PaymentScreenshotURL != "" && t.IDCardURL != ""
}
