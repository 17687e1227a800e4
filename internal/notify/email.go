package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"ticket-price-tracker/internal/types"
	"ticket-price-tracker/lib/helpers"
	"ticket-price-tracker/lib/translation"
)

// EmailConfig holds the SMTP settings.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Email sends notifications to the address stored on the watch item.
type Email struct {
	config EmailConfig
}

// NewEmail creates an email channel. Timeout defaults to 30 seconds.
func NewEmail(c EmailConfig) *Email {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return &Email{config: c}
}

func (e *Email) Name() string {
	return "email"
}

// Notify delivers n to n.Email.
func (e *Email) Notify(ctx context.Context, n types.Notification) error {
	if n.Email == "" {
		return errors.New("notification has no recipient")
	}

	msg := BuildMessage(e.config.From, n)
	if err := e.send(ctx, n.Email, msg); err != nil {
		return errors.Wrapf(err, "could not send email to %s", n.Email)
	}
	return nil
}

// BuildMessage renders the plain text email for n.
func BuildMessage(from string, n types.Notification) []byte {
	subject := translation.Translate("Price Drop for %s!", n.ConcertName)
	body := translation.Translate("Good news! Ticket price is now $%s.\n\nCheck it here: %s",
		helpers.FormatPriceUS(n.Price, false), n.Link)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(n.Email))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// headerValue drops control characters so a value cannot break out of its header line.
func headerValue(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func (e *Email) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(e.config.SMTPHost, strconv.Itoa(e.config.SMTPPort))

	dialer := &net.Dialer{Timeout: e.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "dial failed")
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(e.config.Timeout))

	tlsConfig := &tls.Config{ServerName: e.config.SMTPHost}

	// Port 465 speaks TLS from the first byte.
	if e.config.SMTPPort == 465 {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, e.config.SMTPHost)
	if err != nil {
		return errors.Wrap(err, "creating SMTP client")
	}
	defer client.Close()

	if e.config.SMTPPort != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return errors.Wrap(err, "STARTTLS failed")
			}
		}
	}

	if e.config.Username != "" {
		auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "SMTP auth failed")
		}
	}

	if err := client.Mail(e.envelopeSender()); err != nil {
		return errors.Wrap(err, "SMTP MAIL command failed")
	}
	if err := client.Rcpt(to); err != nil {
		return errors.Wrap(err, "SMTP RCPT command failed")
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "SMTP DATA command failed")
	}
	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "writing message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing message")
	}
	return client.Quit()
}

// envelopeSender extracts the bare address from a display-named From value.
func (e *Email) envelopeSender() string {
	if addr, err := mail.ParseAddress(e.config.From); err == nil {
		return addr.Address
	}
	return e.config.Username
}
