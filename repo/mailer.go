package repo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/wneessen/go-mail"
)

// SMTPMailer sends HTML summaries through an SMTP relay with PLAIN auth over STARTTLS
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      mail.TLSPolicy
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     username,
		TLS:      mail.TLSMandatory,
	}
}

// SendSummary mails htmlBody to recipients. Invalid addresses fail the whole send.
// The SMTP connection is closed as soon as ctx is done.
func (m *SMTPMailer) SendSummary(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.message(recipients, subject, htmlBody)
	if err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		stops []func() bool
	)
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, stop := range stops {
			stop()
		}
	}()
	dial := func(dialCtx context.Context, network, address string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(dialCtx, network, address)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetDeadline(deadline)
		}
		mu.Lock()
		stops = append(stops, context.AfterFunc(ctx, func() { _ = conn.Close() }))
		mu.Unlock()
		return conn, nil
	}

	client, err := mail.NewClient(m.Host,
		mail.WithTLSPortPolicy(m.TLS),
		mail.WithPort(m.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
		mail.WithDialContextFunc(dial),
	)
	if err != nil {
		return fmt.Errorf("error creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("error sending mail via %s: %w", m.Host, errors.Join(ctxErr, err))
		}
		return fmt.Errorf("error sending mail via %s: %w", m.Host, err)
	}
	return nil
}

func (m *SMTPMailer) message(recipients []string, subject, htmlBody string) (*mail.Msg, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("error sending mail: no recipients")
	}
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("error parsing sender %q: %w", m.From, err)
	}
	if err := msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("error parsing recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}
