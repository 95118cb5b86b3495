package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	TransportHTTP = "http"
	TransportSMTP = "smtp"
)

// OutboundCollector records calls made to downstream providers (FCM over
// HTTP, the mail server over SMTP) and the breaker guarding each host.
type OutboundCollector struct {
	requestCount   metric.Int64Counter
	requestLatency metric.Float64Histogram
	errorCount     metric.Int64Counter
	breakerState   metric.Int64Gauge
	breakerChanges metric.Int64Counter
}

func NewOutboundCollector(meter metric.Meter) (*OutboundCollector, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	requestCount, err := meter.Int64Counter(
		"relay.outbound.requests",
		metric.WithDescription("Calls made to downstream providers"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestLatency, err := meter.Float64Histogram(
		"relay.outbound.duration",
		metric.WithDescription("Downstream provider call duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"relay.outbound.errors",
		metric.WithDescription("Downstream provider calls that failed before a response was read"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	breakerState, err := meter.Int64Gauge(
		"relay.outbound.circuit_breaker.state",
		metric.WithDescription("Circuit breaker state (0=closed, 1=open, 2=half-open)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return nil, err
	}

	breakerChanges, err := meter.Int64Counter(
		"relay.outbound.circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, err
	}

	return &OutboundCollector{
		requestCount:   requestCount,
		requestLatency: requestLatency,
		errorCount:     errorCount,
		breakerState:   breakerState,
		breakerChanges: breakerChanges,
	}, nil
}

// RecordRequest records one downstream call. statusCode is 0 when no response
// was received.
func (c *OutboundCollector) RecordRequest(
	ctx context.Context,
	transport string,
	host string,
	statusCode int,
	duration time.Duration,
	err error,
) {
	opt := metric.WithAttributes(
		attribute.String("relay.transport", transport),
		attribute.String("server.address", host),
		attribute.Int("http.status_code", statusCode),
	)

	c.requestCount.Add(ctx, 1, opt)
	c.requestLatency.Record(ctx, duration.Seconds(), opt)

	if err != nil {
		c.errorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("relay.transport", transport),
			attribute.String("server.address", host),
			attribute.String("error.type", errorType(err)),
		))
	}
}

func (c *OutboundCollector) RecordCircuitBreakerState(ctx context.Context, host string, state gobreaker.State) {
	c.breakerState.Record(ctx, breakerStateValue(state), metric.WithAttributes(
		attribute.String("server.address", host),
		attribute.String("circuit_breaker.state", state.String()),
	))
}

func (c *OutboundCollector) RecordCircuitBreakerStateChange(ctx context.Context, host string, from, to gobreaker.State) {
	c.breakerChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("server.address", host),
		attribute.String("circuit_breaker.from_state", from.String()),
		attribute.String("circuit_breaker.to_state", to.String()),
	))
}

func breakerStateValue(state gobreaker.State) int64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}

func errorType(err error) string {
	var netErr net.Error

	switch {
	case err == nil:
		return "none"
	case errors.Is(err, gobreaker.ErrOpenState):
		return "circuit_breaker_open"
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_breaker_half_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
