// registration/ticket/ticket.go
package ticket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"
)

// qrSize is the pixel width of the rendered ticket QR.
const qrSize = 200

// EventInfo is the static event detail rendered onto tickets.
type EventInfo struct {
	Name          string
	Date          string
	Time          string
	Venue         string
	ReportingTime string
	SupportEmail  string
}

// Claims are the non-sensitive identifying facts encoded into the ticket
// QR. Payment credentials are deliberately absent.
type Claims struct {
	TicketNumber       string    `json:"ticketNumber"`
	TeamName           string    `json:"teamName"`
	RegistrationNumber string    `json:"registrationNumber"`
	LeaderName         string    `json:"leaderName"`
	VerifiedAt         time.Time `json:"verifiedAt"`
	EventName          string    `json:"eventName"`
}

// Artifacts is a fully issued credential: the QR payload, the encoded QR
// image and the printable document embedding it.
type Artifacts struct {
	QRPayload string
	QRCode    string
	Document  string
}

// Generator produces ticket artifacts. Generation is deterministic for a
// given set of claims, so re-rendering never changes an issued credential.
type Generator struct {
	encoder QREncoder
	event   EventInfo
	tmpl    *template.Template
}

// NewGenerator creates a ticket generator for the given event.
func NewGenerator(encoder QREncoder, event EventInfo) *Generator {
	return &Generator{
		encoder: encoder,
		event:   event,
		tmpl:    template.Must(template.New("ticket").Parse(ticketTemplate)),
	}
}

// Payload serializes the claims, stamping in the event name.
func (g *Generator) Payload(claims Claims) (string, error) {
	claims.EventName = g.event.Name
	data, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ticket claims: %w", err)
	}
	return string(data), nil
}

// Issue renders the complete credential for the given claims.
func (g *Generator) Issue(claims Claims, teamSize string) (*Artifacts, error) {
	payload, err := g.Payload(claims)
	if err != nil {
		return nil, err
	}

	qrCode, err := g.encoder.Encode(payload, qrSize)
	if err != nil {
		return nil, err
	}

	var doc bytes.Buffer
	err = g.tmpl.Execute(&doc, ticketView{
		Claims:     claims,
		TeamSize:   teamSize,
		QRCode:     template.URL(qrCode),
		Event:      g.event,
		VerifiedOn: claims.VerifiedAt.Format("Jan 2, 2006 15:04 MST"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render ticket document for %s: %w", claims.TicketNumber, err)
	}

	return &Artifacts{
		QRPayload: payload,
		QRCode:    qrCode,
		Document:  doc.String(),
	}, nil
}

type ticketView struct {
	Claims     Claims
	TeamSize   string
	QRCode     template.URL
	Event      EventInfo
	VerifiedOn string
}

// ticketTemplate is the self-contained, printable admission ticket.
const ticketTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Event.Name}} Ticket - {{.Claims.TicketNumber}}</title>
<style>
  body { font-family: 'Segoe UI', Tahoma, sans-serif; background: #667eea; padding: 20px; }
  .ticket { background: white; max-width: 600px; margin: 0 auto; border-radius: 16px; overflow: hidden; }
  .header { background: #5568d3; color: white; padding: 28px; text-align: center; }
  .header .name { font-size: 30px; font-weight: bold; }
  .number { text-align: center; margin: 24px; padding: 18px; background: #f5576c; border-radius: 12px; color: white; }
  .number .label { font-size: 12px; text-transform: uppercase; letter-spacing: 2px; }
  .number .value { font-size: 32px; font-weight: bold; font-family: 'Courier New', monospace; letter-spacing: 3px; }
  .details { margin: 0 28px 24px; }
  .row { display: flex; justify-content: space-between; padding: 12px 0; border-bottom: 1px solid #e0e0e0; }
  .row .label { font-size: 12px; color: #666; text-transform: uppercase; }
  .row .value { font-weight: 600; color: #333; }
  .qr { text-align: center; padding: 24px; background: #f8f9fa; margin: 0 28px 24px; border-radius: 12px; }
  .qr img { width: 200px; height: 200px; }
  .qr .hint { font-size: 13px; color: #666; margin-top: 10px; }
  .venue { background: #5568d3; color: white; padding: 20px; margin: 0 28px 24px; border-radius: 12px; font-size: 14px; }
  .footer { text-align: center; padding: 18px; background: #f8f9fa; border-top: 2px dashed #ddd; font-size: 12px; color: #666; }
  @media print { body { background: white; padding: 0; } }
</style>
</head>
<body>
<div class="ticket">
  <div class="header"><div class="name">{{.Event.Name}}</div></div>
  <div class="number">
    <div class="label">Ticket Number</div>
    <div class="value">{{.Claims.TicketNumber}}</div>
  </div>
  <div class="details">
    <div class="row"><span class="label">Team Name</span><span class="value">{{.Claims.TeamName}}</span></div>
    <div class="row"><span class="label">Team Leader</span><span class="value">{{.Claims.LeaderName}}</span></div>
    <div class="row"><span class="label">Registration No.</span><span class="value">{{.Claims.RegistrationNumber}}</span></div>
    <div class="row"><span class="label">Team Size</span><span class="value">{{.TeamSize}}</span></div>
    <div class="row"><span class="label">Status</span><span class="value">VERIFIED</span></div>
  </div>
  <div class="qr">
    <img src="{{.QRCode}}" alt="Ticket QR Code" />
    <div class="hint"><strong>Scan at venue for quick check-in</strong><br>or show the ticket number to volunteers</div>
  </div>
  <div class="venue">
    <div><strong>Date:</strong> {{.Event.Date}}</div>
    <div><strong>Time:</strong> {{.Event.Time}}</div>
    <div><strong>Venue:</strong> {{.Event.Venue}}</div>
    <div><strong>Reporting Time:</strong> {{.Event.ReportingTime}}</div>
  </div>
  <div class="footer">
    <div><strong>Verified on:</strong> {{.VerifiedOn}}</div>
    <div>For support, contact: {{.Event.SupportEmail}}</div>
  </div>
</div>
</body>
</html>
`
