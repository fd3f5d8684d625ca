package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   []string
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends requests as plain-text mail over SMTP.
type Email struct {
	cfg    EmailConfig
	sender mailSender
}

// NewEmail creates an SMTP transport.
func NewEmail(cfg EmailConfig) *Email {
	if cfg.From == "" && cfg.User != "" {
		cfg.From = fmt.Sprintf("Lab Inventory <%s>", cfg.User)
	}
	return &Email{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}
}

func (e *Email) Name() string { return ChannelEmail }

func (e *Email) Configured() bool {
	return e.cfg.Host != "" && e.cfg.Port > 0 && e.cfg.User != "" && e.cfg.Pass != "" && len(e.cfg.To) > 0
}

func (e *Email) Send(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := Compose(req)
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), messageDomain(e.cfg.From, e.cfg.Host))

	m := gomail.NewMessage()
	m.SetHeader("Message-ID", id)
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body())

	if err := e.sender.DialAndSend(m); err != nil {
		return nil, &TransportError{Channel: ChannelEmail, Err: err}
	}

	return &Result{
		Channel:     ChannelEmail,
		Accepted:    append([]string(nil), e.cfg.To...),
		Rejected:    []string{},
		TransportID: id,
	}, nil
}

func messageDomain(from, host string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		if at := strings.LastIndexByte(addr.Address, '@'); at >= 0 && at < len(addr.Address)-1 {
			return addr.Address[at+1:]
		}
	}
	if host != "" {
		return host
	}
	return "localhost"
}
