package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Notifier tells students about the outcome of their requests
type Notifier interface {
	SendRequestReady(toEmail, toName, tokenNumber, serviceName string) error
	SendRequestRejected(toEmail, toName, tokenNumber, serviceName, reason string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	// ImplicitTLS dials TLS directly (port 465); otherwise SendMail upgrades with STARTTLS when offered
	ImplicitTLS bool
}

// Configured reports whether mail can actually be sent
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.FromEmail != ""
}

// SMTPNotifier implements Notifier over SMTP. Without a configured server it only logs.
type SMTPNotifier struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewNotifier creates a new SMTPNotifier
func NewNotifier(config SMTPConfig, logger zerolog.Logger) *SMTPNotifier {
	n := &SMTPNotifier{
		config: config,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
	n.send = n.deliver
	return n
}

// SendRequestReady announces that a request can be collected
func (n *SMTPNotifier) SendRequestReady(toEmail, toName, tokenNumber, serviceName string) error {
	subject := fmt.Sprintf("%s %s is ready for collection", serviceName, tokenNumber)
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your %s request <strong>%s</strong> is ready. Please collect it from the office with your ID card.</p>
<p>Student Service Desk</p>`,
		html.EscapeString(toName), html.EscapeString(serviceName), html.EscapeString(tokenNumber))

	return n.sendHTMLEmail(toEmail, subject, body)
}

// SendRequestRejected tells the student why a request was rejected
func (n *SMTPNotifier) SendRequestRejected(toEmail, toName, tokenNumber, serviceName, reason string) error {
	subject := fmt.Sprintf("%s %s was rejected", serviceName, tokenNumber)
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your %s request <strong>%s</strong> was rejected.</p>
<p>Reason: %s</p>
<p>You may submit a new request once the issue is resolved.</p>
<p>Student Service Desk</p>`,
		html.EscapeString(toName), html.EscapeString(serviceName), html.EscapeString(tokenNumber), html.EscapeString(reason))

	return n.sendHTMLEmail(toEmail, subject, body)
}

func (n *SMTPNotifier) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	if !n.config.Configured() {
		n.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP not configured - email not sent")
		return nil
	}

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	addr := n.config.Host + ":" + strconv.Itoa(n.config.Port)
	msg := buildMessage(n.config.FromName, n.config.FromEmail, toEmail, subject, htmlBody)
	if err := n.send(addr, auth, n.config.FromEmail, []string{toEmail}, msg); err != nil {
		n.logger.Error().Err(err).Str("server", addr).Str("toEmail", toEmail).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}

func buildMessage(fromName, fromEmail, toEmail, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func (n *SMTPNotifier) deliver(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	if !n.config.ImplicitTLS {
		return smtp.SendMail(addr, auth, from, to, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: n.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	return w.Close()
}
