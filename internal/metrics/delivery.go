package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	OutcomeSent     = "sent"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type DeliveryCollector struct {
	mailCount metric.Int64Counter
	pushCount metric.Int64Counter
}

func NewDeliveryCollector(meter metric.Meter) (*DeliveryCollector, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	mailCount, err := meter.Int64Counter(
		"relay.mail.sent",
		metric.WithDescription("Mail relay attempts by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	pushCount, err := meter.Int64Counter(
		"relay.push.deliveries",
		metric.WithDescription("Per-recipient push deliveries by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &DeliveryCollector{
		mailCount: mailCount,
		pushCount: pushCount,
	}, nil
}

func (c *DeliveryCollector) RecordMail(ctx context.Context, outcome string) {
	c.mailCount.Add(ctx, 1, metric.WithAttributes(attribute.String("relay.outcome", outcome)))
}

func (c *DeliveryCollector) RecordPush(ctx context.Context, outcome string) {
	c.pushCount.Add(ctx, 1, metric.WithAttributes(attribute.String("relay.outcome", outcome)))
}
