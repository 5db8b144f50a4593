package invoice

import (
	"github.com/wavelinklabs/wavelink/internal/invoice/render"
	"github.com/wavelinklabs/wavelink/internal/invoice/repository"
	"github.com/wavelinklabs/wavelink/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice",
	fx.Provide(repository.NewInvoiceRepository),
	fx.Provide(repository.NewSequenceAllocator),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
