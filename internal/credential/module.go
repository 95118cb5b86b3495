package credential

import "go.uber.org/fx"

var Module = fx.Module("credential",
	fx.Provide(
		NewConfig,
		NewServiceCredential,
		fx.Annotate(
			NewTokenExchanger,
			fx.As(new(TokenProvider)),
		),
	),
)
