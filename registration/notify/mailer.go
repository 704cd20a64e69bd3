// registration/notify/mailer.go
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/hackbits/registration-service/shared/models"
)

// Mailer sends lifecycle notifications over SMTP with STARTTLS-capable
// PLAIN auth. One message per call; no queueing.
type Mailer struct {
	addr        string
	auth        smtp.Auth
	from        string
	eventName   string
	frontendURL string
	tmpl        *template.Template
}

// MailerConfig carries the SMTP transport settings.
type MailerConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	EventName   string
	FrontendURL string
}

// NewMailer creates an SMTP notifier.
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:        smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		from:        cfg.From,
		eventName:   cfg.EventName,
		frontendURL: cfg.FrontendURL,
		tmpl:        template.Must(template.New("mail").Parse(mailTemplate)),
	}
}

type mailView struct {
	EventName          string
	Heading            string
	LeaderName         string
	TeamName           string
	RegistrationNumber string
	TicketNumber       string
	RejectionReason    string
	StatusURL          string
	Lines              []string
}

// TeamRegistered sends the registration confirmation with the team's
// registration number.
func (m *Mailer) TeamRegistered(ctx context.Context, team *models.Team) error {
	return m.send(ctx, team.Leader.Email,
		fmt.Sprintf("%s: registration received (%s)", m.eventName, team.RegistrationNumber),
		mailView{
			EventName:          m.eventName,
			Heading:            "Registration Received",
			LeaderName:         team.Leader.Name,
			TeamName:           team.TeamName,
			RegistrationNumber: team.RegistrationNumber,
			Lines: []string{
				"Your team has been registered. Keep the registration number handy.",
				"Complete the payment and upload your documents to get verified.",
			},
		})
}

// PaymentVerified sends the approval mail carrying the ticket number.
func (m *Mailer) PaymentVerified(ctx context.Context, team *models.Team) error {
	return m.send(ctx, team.Leader.Email,
		fmt.Sprintf("%s: payment verified, ticket %s", m.eventName, team.TicketNumber),
		mailView{
			EventName:          m.eventName,
			Heading:            "Payment Verified",
			LeaderName:         team.Leader.Name,
			TeamName:           team.TeamName,
			RegistrationNumber: team.RegistrationNumber,
			TicketNumber:       team.TicketNumber,
			Lines: []string{
				"Your payment has been verified and your ticket is issued.",
				"Bring the ticket QR (or the ticket number) to the venue for check-in.",
			},
		})
}

// PaymentRejected sends the rejection mail with the operator's reason.
func (m *Mailer) PaymentRejected(ctx context.Context, team *models.Team) error {
	return m.send(ctx, team.Leader.Email,
		fmt.Sprintf("%s: payment verification failed", m.eventName),
		mailView{
			EventName:          m.eventName,
			Heading:            "Payment Rejected",
			LeaderName:         team.Leader.Name,
			TeamName:           team.TeamName,
			RegistrationNumber: team.RegistrationNumber,
			RejectionReason:    team.RejectionReason,
			Lines: []string{
				"Your payment could not be verified. Please review the reason below,",
				"fix the issue and resubmit your payment proof.",
			},
		})
}

func (m *Mailer) send(ctx context.Context, to, subject string, view mailView) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.frontendURL != "" {
		view.StatusURL = m.frontendURL + "/status/" + view.RegistrationNumber
	}

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, view); err != nil {
		return fmt.Errorf("failed to render notification mail: %w", err)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

const mailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background: #f4f4f7; padding: 24px;">
  <div style="background: white; max-width: 560px; margin: 0 auto; border-radius: 12px; overflow: hidden;">
    <div style="background: #5568d3; color: white; padding: 20px; text-align: center;">
      <h2 style="margin: 0;">{{.EventName}}</h2>
      <p style="margin: 4px 0 0;">{{.Heading}}</p>
    </div>
    <div style="padding: 24px; color: #333;">
      <p>Hi {{.LeaderName}},</p>
      {{range .Lines}}<p>{{.}}</p>{{end}}
      <table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
        <tr><td style="padding: 8px; color: #666;">Team</td><td style="padding: 8px; font-weight: 600;">{{.TeamName}}</td></tr>
        <tr><td style="padding: 8px; color: #666;">Registration No.</td><td style="padding: 8px; font-weight: 600;">{{.RegistrationNumber}}</td></tr>
        {{if .TicketNumber}}<tr><td style="padding: 8px; color: #666;">Ticket No.</td><td style="padding: 8px; font-weight: 600;">{{.TicketNumber}}</td></tr>{{end}}
        {{if .RejectionReason}}<tr><td style="padding: 8px; color: #666;">Reason</td><td style="padding: 8px; font-weight: 600;">{{.RejectionReason}}</td></tr>{{end}}
      </table>
      {{if .StatusURL}}<p style="text-align: center; margin: 20px 0;"><a href="{{.StatusURL}}" style="background: #5568d3; color: white; padding: 10px 24px; border-radius: 6px; text-decoration: none;">Track Your Registration</a></p>{{end}}
      <p style="color: #999; font-size: 13px;">This is an automated message; replies are not monitored.</p>
    </div>
  </div>
</body>
</html>
`
