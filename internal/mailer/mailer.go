package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/koungkub/fw-notification-relay/internal/client"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"github.com/sony/gobreaker/v2"
	"github.com/wneessen/go-mail"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrNoRecipients = errors.New("no recipients provided")

// Message is a single outbound mail. Text and HTML are passed through
// verbatim; at least one of them is expected to be set.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// TransportError wraps anything that prevented the mail server from
// accepting the message. Its text is the provider message.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -package mockmailer -destination ./mock/mockmailer.go . Sender
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var _ Sender = (*SMTPMailer)(nil)

type SMTPMailer struct {
	config           Config
	breakers         *client.CircuitBreakerRegistry
	metricsCollector *metrics.OutboundCollector
	logger           *zap.Logger
}

type SMTPMailerParams struct {
	fx.In

	Config                 Config
	CircuitBreakerRegistry *client.CircuitBreakerRegistry
	MetricsCollector       *metrics.OutboundCollector
	Logger                 *zap.Logger
}

func NewSMTPMailer(params SMTPMailerParams) *SMTPMailer {
	return &SMTPMailer{
		config:           params.Config,
		breakers:         params.CircuitBreakerRegistry,
		metricsCollector: params.MetricsCollector,
		logger:           params.Logger,
	}
}

type Config struct {
	User     string        `envconfig:"MAIL_USER" required:"true"`
	Password string        `envconfig:"MAIL_PASS" required:"true"`
	Host     string        `envconfig:"MAIL_HOST" default:"smtp.gmail.com"`
	Port     int           `envconfig:"MAIL_PORT" default:"587"`
	SSL      bool          `envconfig:"MAIL_SSL" default:"false"`
	FromName string        `envconfig:"MAIL_FROM_NAME" default:"Notification Relay"`
	Timeout  time.Duration `envconfig:"MAIL_TIMEOUT" default:"15s"`
}

func NewConfig() Config {
	var cfg Config
	envconfig.MustProcess("", &cfg)

	return cfg
}

// Send makes exactly one delivery attempt.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mailMsg, err := m.buildMessage(msg)
	if err != nil {
		return &TransportError{Err: err}
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	circuitBreaker := m.breaker(addr)
	m.metricsCollector.RecordCircuitBreakerState(ctx, addr, circuitBreaker.State())

	start := time.Now()
	_, err = circuitBreaker.Execute(func() (client.Response, error) {
		smtpClient, err := mail.NewClient(m.config.Host, m.clientOptions()...)
		if err != nil {
			return client.Response{}, fmt.Errorf("failed to create mail client: %w", err)
		}
		return client.Response{}, smtpClient.DialAndSendWithContext(ctx, mailMsg)
	})
	m.metricsCollector.RecordRequest(ctx, metrics.TransportSMTP, addr, 0, time.Since(start), err)

	if err != nil {
		m.logger.Error("mail transport failed",
			zap.String("addr", addr),
			zap.Error(err),
		)
		return &TransportError{Err: err}
	}

	return nil
}

func (m *SMTPMailer) breaker(addr string) *gobreaker.CircuitBreaker[client.Response] {
	return m.breakers.GetOrCreate(addr, client.WithSuccessFilter(serverHealthy))
}

// serverHealthy reports whether err still proves a working mail server: it
// answered but permanently refused this particular message.
func serverHealthy(err error) bool {
	if client.IgnoreCanceled(err) {
		return true
	}

	var sendErr *mail.SendError
	if !errors.As(err, &sendErr) || sendErr.IsTemp() {
		return false
	}

	switch sendErr.Reason {
	case mail.ErrGetSender, mail.ErrGetRcpts, mail.ErrSMTPMailFrom, mail.ErrSMTPRcptTo,
		mail.ErrSMTPData, mail.ErrWriteContent, mail.ErrNoUnencoded:
		return true
	default:
		return false
	}
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.config.User),
		mail.WithPassword(m.config.Password),
		mail.WithTimeout(m.config.Timeout),
	}
	if m.config.SSL {
		return append(opts, mail.WithSSL())
	}
	return append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
}

func (m *SMTPMailer) buildMessage(msg Message) (*mail.Msg, error) {
	mailMsg := mail.NewMsg()

	if err := mailMsg.FromFormat(m.config.FromName, m.config.User); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	recipients := splitRecipients(msg.To)
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if err := mailMsg.To(recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	mailMsg.Subject(msg.Subject)

	switch {
	case msg.Text != "" && msg.HTML != "":
		mailMsg.SetBodyString(mail.TypeTextPlain, msg.Text)
		mailMsg.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		mailMsg.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		mailMsg.SetBodyString(mail.TypeTextPlain, msg.Text)
	}

	return mailMsg, nil
}

// the `to` field may carry a comma separated list
func splitRecipients(to string) []string {
	var out []string
	for _, r := range strings.Split(to, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
