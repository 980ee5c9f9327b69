// Package notify delivers email notices to students and instructors.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Message is one email with HTML and plain-text alternatives.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Notifier sends messages. Callers log failures and do not retry.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "email notification",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPConfig configures an SMTPNotifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds one delivery, dial included.
	Timeout time.Duration
}

// SMTPNotifier sends multipart/alternative mail through an SMTP relay.
type SMTPNotifier struct {
	addr    string
	from    string
	timeout time.Duration
	send    sendFunc
	now     func() time.Time
}

// NewSMTPNotifier creates a notifier for the relay in cfg. TLS is used when the relay
// offers it. Authentication is PLAIN and only used when a username is set.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithDialContextFunc(dialWithDeadline),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	// Options are checked here; every send dials with its own client.
	if _, err := mail.NewClient(cfg.Host, opts...); err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &SMTPNotifier{
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:    cfg.From,
		timeout: cfg.Timeout,
		send: func(ctx context.Context, msg *mail.Msg) error {
			client, err := mail.NewClient(cfg.Host, opts...)
			if err != nil {
				return err
			}
			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}, nil
}

// dialWithDeadline carries the context deadline onto the connection so a relay that
// stops answering mid-session cannot hold the caller.
func dialWithDeadline(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients for %q", msg.Subject)
	}

	m, err := n.compose(msg)
	if err != nil {
		return fmt.Errorf("failed to compose message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.send(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", n.addr, err)
	}
	return nil
}

func (n *SMTPNotifier) compose(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(n.now())
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}
