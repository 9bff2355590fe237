// Package domain contains the webhook outbox model and payload shape.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event names follow "<entity>.<status>" in lower case, e.g. "order.delivered".

// WebhookEvent is an outbox row. Rows are written inside the transaction that
// produced the event and handed to the deliverer strictly after commit, so a
// delivery failure can never roll back recorded state.
type WebhookEvent struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID   `gorm:"not null;index" json:"tenant_id"`
	Event       string         `gorm:"type:text;not null" json:"event"`
	TargetURL   string         `gorm:"type:text;not null" json:"target_url"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	Published   bool           `gorm:"not null;default:false;index" json:"published"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	PublishedAt *time.Time     `json:"published_at"`
}

// TableName sets the database table name.
func (WebhookEvent) TableName() string { return "webhook_events" }

// Payload is the stable wire shape consumers depend on.
type Payload struct {
	Event     string         `json:"event"`
	TenantID  string         `json:"tenant_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}
