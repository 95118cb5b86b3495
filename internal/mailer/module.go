package mailer

import "go.uber.org/fx"

var Module = fx.Module("mailer",
	fx.Provide(
		fx.Annotate(
			NewSMTPMailer,
			fx.As(new(Sender)),
		),
		NewConfig,
	),
)
