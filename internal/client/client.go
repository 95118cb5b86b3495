package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -package mockclient -destination ./mock/mockclient.go . HTTPClientProvider
type HTTPClientProvider interface {
	PostJSON(ctx context.Context, u string, bearerToken string, reqBody any) (Response, error)
}

var _ HTTPClientProvider = (*HTTPClient)(nil)

// Response is the raw provider answer. A non-2xx status is not an error and
// does not count against the breaker: providers encode message-level
// rejection in the body. Only transport failures trip the breaker.
type Response struct {
	Body       []byte
	StatusCode int
}

type HTTPClient struct {
	httpclient             *http.Client
	circuitBreakerRegistry *CircuitBreakerRegistry
	metricsCollector       *metrics.OutboundCollector
	logger                 *zap.Logger
}

type HTTPClientConfig struct {
	Timeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"10s"`
}

type HTTPClientParams struct {
	fx.In

	Config                 HTTPClientConfig
	CircuitBreakerRegistry *CircuitBreakerRegistry
	MetricsCollector       *metrics.OutboundCollector
	Logger                 *zap.Logger
}

func NewHTTPClient(params HTTPClientParams) *HTTPClient {
	return &HTTPClient{
		httpclient: &http.Client{
			Timeout: params.Config.Timeout,
		},
		circuitBreakerRegistry: params.CircuitBreakerRegistry,
		metricsCollector:       params.MetricsCollector,
		logger:                 params.Logger,
	}
}

func NewHTTPClientConfig() HTTPClientConfig {
	var cfg HTTPClientConfig
	envconfig.MustProcess("", &cfg)

	return cfg
}

func (c *HTTPClient) PostJSON(ctx context.Context, u string, bearerToken string, reqBody any) (Response, error) {
	start := time.Now()
	host, err := extractHost(u)
	if err != nil {
		return Response{}, err
	}

	circuitBreaker := c.circuitBreakerRegistry.GetOrCreate(host)
	c.metricsCollector.RecordCircuitBreakerState(ctx, host, circuitBreaker.State())

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, err
	}

	resp, err := circuitBreaker.Execute(func() (Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jsonBody))
		if err != nil {
			return Response{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		if bearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+bearerToken)
		}

		httpResp, err := c.httpclient.Do(req)
		if err != nil {
			return Response{}, err
		}
		defer httpResp.Body.Close()

		rawBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return Response{}, err
		}

		return Response{
			Body:       rawBody,
			StatusCode: httpResp.StatusCode,
		}, nil
	})

	c.metricsCollector.RecordRequest(ctx, metrics.TransportHTTP, host, resp.StatusCode, time.Since(start), err)

	if err != nil {
		c.logger.Warn("outbound request failed",
			zap.String("host", host),
			zap.Error(err),
		)
		return Response{}, err
	}

	return resp, nil
}

func extractHost(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
