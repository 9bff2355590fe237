package commission

import (
	"go.uber.org/fx"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/repository"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/service"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
