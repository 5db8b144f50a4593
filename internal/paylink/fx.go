package paylink

import (
	"github.com/wavelinklabs/wavelink/internal/gateway"
	"go.uber.org/fx"
)

var Module = fx.Module("paylink",
	gateway.Module,
	fx.Provide(func(r *gateway.Registry) Gateway { return r }),
	fx.Provide(NewService),
)
