// registration/ticket/ticket_test.go
package ticket

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEncoder struct {
	payloads []string
}

func (re *recordingEncoder) Encode(payload string, _ int) (string, error) {
	re.payloads = append(re.payloads, payload)
	return "data:image/png;base64,stub", nil
}

func testClaims() Claims {
	return Claims{
		TicketNumber:       "HACK2025-001",
		TeamName:           "Alpha",
		RegistrationNumber: "TEAM0001",
		LeaderName:         "Ada",
		VerifiedAt:         time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestPayloadCarriesOnlyIdentifyingClaims(t *testing.T) {
	gen := NewGenerator(&recordingEncoder{}, EventInfo{Name: "HACKATHON 2025"})

	payload, err := gen.Payload(testClaims())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, "HACK2025-001", decoded["ticketNumber"])
	assert.Equal(t, "Alpha", decoded["teamName"])
	assert.Equal(t, "TEAM0001", decoded["registrationNumber"])
	assert.Equal(t, "Ada", decoded["leaderName"])
	assert.Equal(t, "HACKATHON 2025", decoded["eventName"])

	// No payment credentials anywhere near the QR.
	lower := strings.ToLower(payload)
	assert.NotContains(t, lower, "payment")
	assert.NotContains(t, lower, "signature")
	assert.NotContains(t, lower, "transaction")
}

func TestIssueIsDeterministic(t *testing.T) {
	gen := NewGenerator(&recordingEncoder{}, EventInfo{Name: "HACKATHON 2025", Venue: "Main Hall"})

	first, err := gen.Issue(testClaims(), "Solo")
	require.NoError(t, err)
	second, err := gen.Issue(testClaims(), "Solo")
	require.NoError(t, err)

	assert.Equal(t, first.QRPayload, second.QRPayload)
	assert.Equal(t, first.QRCode, second.QRCode)
	assert.Equal(t, first.Document, second.Document)
}

func TestIssueRendersSelfContainedDocument(t *testing.T) {
	enc := &recordingEncoder{}
	gen := NewGenerator(enc, EventInfo{
		Name:          "HACKATHON 2025",
		Date:          "January 15-16, 2025",
		Venue:         "Main Hall",
		ReportingTime: "8:30 AM",
		SupportEmail:  "help@example.com",
	})

	artifacts, err := gen.Issue(testClaims(), "Duo")
	require.NoError(t, err)

	require.Len(t, enc.payloads, 1)
	assert.Equal(t, artifacts.QRPayload, enc.payloads[0])

	doc := artifacts.Document
	assert.Contains(t, doc, "HACK2025-001")
	assert.Contains(t, doc, "Alpha")
	assert.Contains(t, doc, "TEAM0001")
	assert.Contains(t, doc, "Ada")
	assert.Contains(t, doc, "Main Hall")
	assert.Contains(t, doc, "help@example.com")
	assert.Contains(t, doc, artifacts.QRCode)
	// Offline-viewable: no external resources.
	assert.NotContains(t, doc, "http://")
	assert.NotContains(t, doc, "https://")
}

func TestPNGEncoderProducesDataURL(t *testing.T) {
	out, err := PNGEncoder{}.Encode("hello", 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))
	assert.Greater(t, len(out), len("data:image/png;base64,"))
}
