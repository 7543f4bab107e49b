// Package email delivers invoice, estimate and reminder emails to clients.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNoRecipient = errors.New("email has no recipient")

// Config holds the transport settings
type Config struct {
	Provider       string // "smtp" or "sendgrid"
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SendGridAPIKey string
	FromName       string
	FromEmail      string
}

// Attachment is a file sent along with a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outbound email
type Message struct {
	To       string
	ToName   string
	ReplyTo  string
	FromName string // overrides the configured sender name when set
	Subject  string
	HTMLBody string

	Attachments []Attachment
}

func (m *Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// Sender delivers a message. A nil error means the transport accepted it.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NewSender picks the transport named by cfg.Provider
func NewSender(cfg Config) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "smtp":
		return NewSMTPSender(cfg), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return NewSendGridSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func senderName(cfg Config, msg *Message) string {
	if msg.FromName != "" {
		return msg.FromName
	}
	return cfg.FromName
}
