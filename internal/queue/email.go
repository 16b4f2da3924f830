package queue

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Email is a rendered plain-text notification.
type Email struct {
	Subject string
	Body    string
}

// RenderContactEmail formats the booking inquiry notification sent to the
// band's contact address.  Optional fields only appear when present.
func RenderContactEmail(ev ContactSubmittedEvent) Email {
	var b strings.Builder
	b.WriteString("New contact form submission from The Band Project website:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", ev.Name)
	fmt.Fprintf(&b, "Email: %s\n", ev.Email)
	if ev.Organization != nil {
		fmt.Fprintf(&b, "Organization: %s\n", *ev.Organization)
	}
	if ev.EventDate != nil {
		fmt.Fprintf(&b, "Event Date: %s\n", *ev.EventDate)
	}
	if ev.Location != nil {
		fmt.Fprintf(&b, "Location: %s\n", *ev.Location)
	}
	b.WriteString("\nMessage:\n")
	b.WriteString(ev.Message)

	return Email{
		Subject: "New Contact Form Submission from " + singleLine(ev.Name),
		Body:    strings.TrimSpace(b.String()),
	}
}

// singleLine keeps submitter text from adding mail headers.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, replyTo string, e Email) error
}

// SMTPMailer sends through an SMTP relay, with PLAIN auth when a username
// is set.  Notifications go to the band's own inbox.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string

	// send is smtp.SendMail; replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for host:port.  An empty to sends to from.
func NewSMTPMailer(host, port, username, password, from, to string) *SMTPMailer {
	if to == "" {
		to = from
	}
	return &SMTPMailer{
		Host: host, Port: port, Username: username, Password: password,
		From: from, To: to, send: smtp.SendMail,
	}
}

// Send implements Mailer.  net/smtp has no context support; the deadline is
// only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, replyTo string, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return m.send(net.JoinHostPort(m.Host, m.Port), auth, m.From, []string{m.To}, m.message(replyTo, e))
}

func (m *SMTPMailer) message(replyTo string, e Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	if replyTo = singleLine(replyTo); replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(e.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
