package mailer

import (
	"context"

	gomail "gopkg.in/gomail.v2"
)

// Message is one outbound email. Body may be HTML; the engine never
// parses it.
type Message struct {
	Subject string
	Body    string
	From    string
	To      string
}

// Transport sends exactly one message to exactly one recipient.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

// SMTP sends through a real SMTP server.
type SMTP struct {
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, username, password string) *SMTP {
	return &SMTP{dialer: gomail.NewDialer(host, port, username, password)}
}

func (s *SMTP) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.From)
	gm.SetHeader("To", m.To)
	gm.SetHeader("Subject", m.Subject)
	gm.SetBody("text/html", m.Body)
	return s.dialer.DialAndSend(gm)
}

var _ Transport = (*SMTP)(nil)
