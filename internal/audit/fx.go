package audit

import (
	"github.com/wavelinklabs/wavelink/internal/audit/repository"
	"github.com/wavelinklabs/wavelink/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
