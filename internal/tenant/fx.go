package tenant

import (
	"go.uber.org/fx"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/repository"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/service"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
