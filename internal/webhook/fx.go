package webhook

import (
	"context"

	"go.uber.org/fx"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/service"
)

var Module = fx.Module("webhook.service",
	fx.Provide(func() domain.Deliverer { return noopDeliverer{} }),
	fx.Provide(service.New),
)

type noopDeliverer struct{}

func (noopDeliverer) Deliver(ctx context.Context, targetURL string, payload domain.Payload) error {
	return nil
}
