// Package notification defines the outbound notification boundary. Delivery
// transport (email, chat, push) lives outside this system; the core only
// decides when an event is worth telling someone about.
package notification

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// AssignmentEvent describes a designer assignment worth notifying about.
type AssignmentEvent struct {
	TenantID   snowflake.ID
	OrderID    snowflake.ID
	DesignerID snowflake.ID
	AssignedBy snowflake.ID
}

type Notifier interface {
	OrderAssigned(ctx context.Context, event AssignmentEvent) error
}

type NoOpNotifier struct{}

func (NoOpNotifier) OrderAssigned(ctx context.Context, event AssignmentEvent) error {
	return nil
}
