package client

import "go.uber.org/fx"

// Module provides the outbound HTTP client and the breaker registry it shares
// with the SMTP mailer.
var Module = fx.Module("client",
	fx.Provide(
		NewCircuitBreakerRegistryConfig,
		NewCircuitBreakerRegistry,
		NewHTTPClientConfig,
		fx.Annotate(
			NewHTTPClient,
			fx.As(new(HTTPClientProvider)),
		),
	),
)
