package customer

import "go.uber.org/fx"

var Module = fx.Module("customer.service",
	fx.Provide(NewService),
)
