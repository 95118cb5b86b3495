package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CircuitBreakerRegistry hands out one breaker per downstream host. It is
// shared by the push HTTP client and the SMTP mailer.
type CircuitBreakerRegistry struct {
	breakers *sync.Map
	settings gobreaker.Settings
}

type CircuitBreakerRegistryParams struct {
	fx.In

	Config           CircuitBreakerRegistryConfig
	MetricsCollector *metrics.OutboundCollector `optional:"true"`
	Logger           *zap.Logger
}

func NewCircuitBreakerRegistry(params CircuitBreakerRegistryParams) *CircuitBreakerRegistry {
	cfg := params.Config

	return &CircuitBreakerRegistry{
		breakers: &sync.Map{},
		settings: gobreaker.Settings{
			MaxRequests:  cfg.MaxHalfOpenRequests,
			Timeout:      cfg.OpenStateTimeout,
			IsSuccessful: IgnoreCanceled,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequestsBeforeTrip {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= cfg.FailureThresholdPercent/100
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				params.Logger.Warn("circuit breaker state changed",
					zap.String("host", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
				if params.MetricsCollector != nil {
					params.MetricsCollector.RecordCircuitBreakerStateChange(context.Background(), name, from, to)
				}
			},
		},
	}
}

type CircuitBreakerRegistryConfig struct {
	MaxHalfOpenRequests     uint32        `envconfig:"CIRCUIT_BREAKER_MAX_HALF_OPEN_REQUESTS" default:"5"`
	OpenStateTimeout        time.Duration `envconfig:"CIRCUIT_BREAKER_OPEN_STATE_TIMEOUT" default:"60s"`
	MinRequestsBeforeTrip   uint32        `envconfig:"CIRCUIT_BREAKER_MIN_REQUESTS_BEFORE_TRIP" default:"3"`
	FailureThresholdPercent float64       `envconfig:"CIRCUIT_BREAKER_FAILURE_THRESHOLD_PERCENT" default:"60"`
}

func NewCircuitBreakerRegistryConfig() CircuitBreakerRegistryConfig {
	var cfg CircuitBreakerRegistryConfig
	envconfig.MustProcess("", &cfg)

	return cfg
}

// BreakerOption adjusts the settings of a breaker when it is first created.
type BreakerOption func(*gobreaker.Settings)

// WithSuccessFilter decides which errors leave the host healthy. The error is
// still returned to the caller either way.
func WithSuccessFilter(isSuccessful func(err error) bool) BreakerOption {
	return func(s *gobreaker.Settings) {
		s.IsSuccessful = isSuccessful
	}
}

// IgnoreCanceled treats a request abandoned by its caller as healthy.
func IgnoreCanceled(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// GetOrCreate returns the breaker for host. Options only apply to the call
// that creates it.
func (r *CircuitBreakerRegistry) GetOrCreate(host string, opts ...BreakerOption) *gobreaker.CircuitBreaker[Response] {
	if cb, ok := r.breakers.Load(host); ok {
		return cb.(*gobreaker.CircuitBreaker[Response])
	}

	settings := r.settings
	settings.Name = host
	for _, opt := range opts {
		opt(&settings)
	}

	cb := gobreaker.NewCircuitBreaker[Response](settings)

	actual, _ := r.breakers.LoadOrStore(host, cb)
	return actual.(*gobreaker.CircuitBreaker[Response])
}
