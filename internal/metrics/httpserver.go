package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPServerCollector measures every inbound relay request.
type HTTPServerCollector struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

func NewHTTPServerCollector(meter metric.Meter) (*HTTPServerCollector, error) {
	requestCount, err := meter.Int64Counter(
		"relay.server.requests",
		metric.WithDescription("Inbound relay requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"relay.server.duration",
		metric.WithDescription("Inbound relay request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"relay.server.active_requests",
		metric.WithDescription("Inbound relay requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPServerCollector{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

func (m *HTTPServerCollector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		method := metric.WithAttributes(attribute.String("http.method", c.Request.Method))

		m.activeRequests.Add(ctx, 1, method)
		defer m.activeRequests.Add(ctx, -1, method)

		start := time.Now()
		c.Next()

		// unmatched paths collapse into one series
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		opt := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
		)

		m.requestCount.Add(ctx, 1, opt)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), opt)
	}
}
