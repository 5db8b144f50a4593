package gateway

import (
	"github.com/wavelinklabs/wavelink/internal/config"
	"github.com/wavelinklabs/wavelink/internal/gateway/adapters/bkash"
	"github.com/wavelinklabs/wavelink/internal/gateway/adapters/nagad"
	"github.com/wavelinklabs/wavelink/internal/gateway/adapters/rocket"
	"go.uber.org/fx"
)

var Module = fx.Module("gateway",
	fx.Provide(func(cfg config.Config) *Registry {
		return NewRegistry(
			bkash.New(cfg.Bkash),
			nagad.New(cfg.Nagad),
			rocket.New(cfg.Rocket),
		)
	}),
)
