package mail

import (
	"context"
	"fmt"

	"github.com/vasiliy-maslov/meetapp/internal/config"
	"gopkg.in/gomail.v2"
)

// Message is one outgoing HTML mail. The recipient name and address stay
// separate so the header is built by gomail.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers messages through a single SMTP relay.
type SMTPMailer struct {
	send func(msgs ...*gomail.Message) error
	from string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &SMTPMailer{send: dialer.DialAndSend, from: cfg.From}
}

func newMailer(sender gomail.Sender, from string) *SMTPMailer {
	return &SMTPMailer{
		send: func(msgs ...*gomail.Message) error { return gomail.Send(sender, msgs...) },
		from: from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetAddressHeader("To", msg.ToEmail, msg.ToName)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.send(gm); err != nil {
		return fmt.Errorf("mail: failed to send %q to %s: %w", msg.Subject, msg.ToEmail, err)
	}
	return nil
}
