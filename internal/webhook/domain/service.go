package domain

import (
	"context"

	"gorm.io/gorm"

	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
)

// Deliverer performs the actual HTTP delivery. It is an external
// collaborator; the default implementation does nothing.
type Deliverer interface {
	Deliver(ctx context.Context, targetURL string, payload Payload) error
}

type Dispatcher interface {
	// Queue decides whether the event fires for the tenant and, if so,
	// writes an outbox row using the caller's transaction. A gated-off
	// event is a silent no-op.
	Queue(ctx context.Context, tx *gorm.DB, settings tenantdomain.Settings, event string, data map[string]any) error

	// DispatchPending hands unpublished outbox rows to the deliverer and
	// marks them published. Returns the number dispatched; a failed row is
	// logged and left for the next run.
	DispatchPending(ctx context.Context, batchSize int) (int, error)
}
