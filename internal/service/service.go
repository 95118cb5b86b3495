package service

import (
	"context"
	"encoding/json"

	"github.com/kelseyhightower/envconfig"
	"github.com/koungkub/fw-notification-relay/internal/client"
	"github.com/koungkub/fw-notification-relay/internal/credential"
	"github.com/koungkub/fw-notification-relay/internal/mailer"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("service",
	fx.Provide(
		fx.Annotate(
			NewNotificationService,
			fx.As(new(NotificationProvider)),
		),
		NewConfig,
	),
)

// PushMessage is one push request after token normalization.
type PushMessage struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// DeliveryResult is the outcome for a single recipient. Response holds the
// provider body verbatim; Error is set only when no body could be obtained.
type DeliveryResult struct {
	Token    string          `json:"token"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// PushReport lists results in the same order as PushMessage.Tokens.
type PushReport struct {
	Results []DeliveryResult
	Failed  int
}

func (r PushReport) PartialFailure() bool {
	return r.Failed > 0
}

//go:generate mockgen -package mockservice -destination ./mock/mockservice.go . NotificationProvider
type NotificationProvider interface {
	SendMail(ctx context.Context, msg mailer.Message) error
	SendPush(ctx context.Context, msg PushMessage) (PushReport, error)
}

var _ NotificationProvider = (*NotificationService)(nil)

type NotificationService struct {
	config            Config
	mailer            mailer.Sender
	tokenProvider     credential.TokenProvider
	httpclient        client.HTTPClientProvider
	credential        credential.ServiceCredential
	deliveryCollector *metrics.DeliveryCollector
	logger            *zap.Logger
}

type NotificationServiceParams struct {
	fx.In

	Config            Config
	Mailer            mailer.Sender
	TokenProvider     credential.TokenProvider
	HTTPclient        client.HTTPClientProvider
	Credential        credential.ServiceCredential
	DeliveryCollector *metrics.DeliveryCollector
	Logger            *zap.Logger
}

func NewNotificationService(params NotificationServiceParams) *NotificationService {
	return &NotificationService{
		config:            params.Config,
		mailer:            params.Mailer,
		tokenProvider:     params.TokenProvider,
		httpclient:        params.HTTPclient,
		credential:        params.Credential,
		deliveryCollector: params.DeliveryCollector,
		logger:            params.Logger,
	}
}

type Config struct {
	FCMBaseURL        string `envconfig:"FCM_BASE_URL" default:"https://fcm.googleapis.com"`
	FanoutConcurrency int    `envconfig:"PUSH_FANOUT_CONCURRENCY" default:"10"`
}

func NewConfig() Config {
	var cfg Config
	envconfig.MustProcess("", &cfg)

	return cfg
}
