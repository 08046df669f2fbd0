package notification

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/gomail.v2"
)

// ErrMailDisabled means no mail configuration file was found.
var ErrMailDisabled = errors.New("email notifications disabled")

const (
	defaultSMTPHost = "smtp.gmail.com"
	defaultSMTPPort = 587
)

// MailConfig is read from a KEY=VALUE file kept outside the main config.
type MailConfig struct {
	SenderEmail string
	AppPassword string
	Recipients  []string
	SMTPHost    string
	SMTPPort    int
}

// LoadMailConfig reads SENDER_EMAIL, APP_PASSWORD and RECIPIENT_EMAIL (comma
// separated) plus the optional SMTP_HOST and SMTP_PORT. A missing file returns
// ErrMailDisabled.
func LoadMailConfig(path string) (*MailConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrMailDisabled
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mail config %s: %w", path, err)
	}

	cfg := &MailConfig{
		SenderEmail: strings.TrimSpace(env["SENDER_EMAIL"]),
		AppPassword: env["APP_PASSWORD"],
		SMTPHost:    strings.TrimSpace(env["SMTP_HOST"]),
		SMTPPort:    defaultSMTPPort,
	}
	for _, r := range strings.Split(env["RECIPIENT_EMAIL"], ",") {
		if r = strings.TrimSpace(r); r != "" {
			cfg.Recipients = append(cfg.Recipients, r)
		}
	}
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = defaultSMTPHost
	}
	if v := strings.TrimSpace(env["SMTP_PORT"]); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("invalid SMTP_PORT %q", v)
		}
		cfg.SMTPPort = port
	}

	if cfg.SenderEmail == "" || cfg.AppPassword == "" || len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("mail config %s needs SENDER_EMAIL, APP_PASSWORD and RECIPIENT_EMAIL", path)
	}
	return cfg, nil
}

// Mailer delivers a rendered digest by email.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg  MailConfig
	send func(...*gomail.Message) error
}

// NewSMTPMailer creates a mailer that dials the relay for every message.
func NewSMTPMailer(cfg MailConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.AppPassword)
	return &SMTPMailer{cfg: cfg, send: dialer.DialAndSend}
}

// Send delivers msg to every configured recipient.
func (m *SMTPMailer) Send(msg Message) error {
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.cfg.SenderEmail)
	mail.SetHeader("To", m.cfg.Recipients...)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/plain", msg.Text)
	mail.AddAlternative("text/html", msg.HTML)

	if err := m.send(mail); err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	return nil
}
