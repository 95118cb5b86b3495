package metrics

import (
	"context"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// durationBuckets covers a fast FCM call up to a slow SMTP handshake.
var durationBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// NewMeterProvider registers a Prometheus backed meter provider as the global
// OpenTelemetry provider. Instruments are scraped through promhttp.Handler.
func NewMeterProvider() (*sdkmetric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithView(durationView()),
	)

	otel.SetMeterProvider(provider)
	return provider, nil
}

type MeterParams struct {
	fx.In

	Config        MeterConfig
	MeterProvider *sdkmetric.MeterProvider
	Logger        *zap.Logger
}

func NewMeter(lc fx.Lifecycle, params MeterParams) metric.Meter {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("flushing meter provider")
			return params.MeterProvider.Shutdown(ctx)
		},
	})

	return params.MeterProvider.Meter(params.Config.AppName)
}

type MeterConfig struct {
	AppName string `envconfig:"APP_NAME" default:"notification-relay"`
}

func NewMeterConfig() MeterConfig {
	var cfg MeterConfig
	envconfig.MustProcess("", &cfg)

	return cfg
}

func durationView() sdkmetric.View {
	return sdkmetric.NewView(
		sdkmetric.Instrument{Name: "relay.*.duration"},
		sdkmetric.Stream{
			Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: durationBuckets,
			},
		},
	)
}
