package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadgate/internal/entity"
)

var leadTemplate = template.Must(template.New("lead").Parse(`A new lead downloaded the guide.

Name:  {{.Name}}
Email: {{.Email}}
When:  {{.CapturedAt}}
`))

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from string, to []string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

func (s *EmailSender) dialer() Dialer {
	return gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
}

// Send delivers the notification over SMTP. gomail has no context support, so a
// cancelled ctx returns early while the dial finishes in the background.
func (s *EmailSender) Send(ctx context.Context, n entity.LeadNotification) error {
	return s.SendWith(ctx, s.dialer(), n)
}

func (s *EmailSender) SendWith(ctx context.Context, d Dialer, n entity.LeadNotification) error {
	m, err := s.BuildMessage(n)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send lead email via SMTP: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send lead email via SMTP: %w", ctx.Err())
	}
}

func (s *EmailSender) BuildMessage(n entity.LeadNotification) (*gomail.Message, error) {
	if s.From == "" || len(s.To) == 0 {
		return nil, errors.New("mail sender needs from and to addresses")
	}

	data := LeadEmailData{
		Name:       n.Name,
		Email:      n.Email,
		CapturedAt: n.CapturedAt.Format(entity.TimestampLayout),
	}

	var body bytes.Buffer
	if err := leadTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render lead email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Reply-To", n.Email)
	m.SetHeader("Subject", fmt.Sprintf("New lead: %s", n.Name))
	m.SetBody("text/plain", body.String())
	return m, nil
}
