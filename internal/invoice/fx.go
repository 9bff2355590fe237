package invoice

import (
	"go.uber.org/fx"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/repository"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
