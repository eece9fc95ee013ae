package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const implicitTLSPort = 465

var (
	// ErrMissingRecipient is returned when no destination address is given.
	ErrMissingRecipient = errors.New("email recipient is not configured")

	// ErrSMTPNotConfigured is returned when host, user or password is empty.
	ErrSMTPNotConfigured = errors.New("SMTP host, user and password must be configured")
)

// Config contains outgoing mail server settings. The user doubles as the
// sender address.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	UseTLS   bool
}

// Sender delivers HTML email through an authenticated SMTP server.
type Sender struct {
	config Config
}

// NewSender creates a new Sender.
func NewSender(cfg Config) *Sender {
	if cfg.Port == 0 {
		cfg.Port = implicitTLSPort
	}
	return &Sender{config: cfg}
}

// Send delivers one HTML message to a single recipient.
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg, err := s.buildMessage(to, subject, htmlBody)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	logger.L().Info("Digest email sent",
		zap.String("to", to),
		zap.String("host", s.config.Host),
		zap.Int("port", s.config.Port),
	)
	return nil
}

func (s *Sender) buildMessage(to, subject, htmlBody string) (*mail.Msg, error) {
	if to == "" {
		return nil, ErrMissingRecipient
	}
	if s.config.Host == "" || s.config.User == "" || s.config.Password == "" {
		return nil, ErrSMTPNotConfigured
	}

	msg := mail.NewMsg()
	if err := msg.From(s.config.User); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.config.User, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	return msg, nil
}

// clientOptions picks implicit TLS on port 465, STARTTLS on other ports and
// plain SMTP when TLS is disabled.
func (s *Sender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithUsername(s.config.User),
		mail.WithPassword(s.config.Password),
	}

	switch s.transportMode() {
	case modeImplicitTLS:
		opts = append(opts, mail.WithSSL(), mail.WithSMTPAuth(mail.SMTPAuthPlain))
	case modeStartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory), mail.WithSMTPAuth(mail.SMTPAuthPlain))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS), mail.WithSMTPAuth(mail.SMTPAuthPlainNoEnc))
	}
	return opts
}

type transportMode int

const (
	modePlain transportMode = iota
	modeStartTLS
	modeImplicitTLS
)

func (s *Sender) transportMode() transportMode {
	switch {
	case !s.config.UseTLS:
		return modePlain
	case s.config.Port == implicitTLSPort:
		return modeImplicitTLS
	default:
		return modeStartTLS
	}
}
