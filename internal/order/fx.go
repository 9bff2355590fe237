package order

import (
	"go.uber.org/fx"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/repository"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/service"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
