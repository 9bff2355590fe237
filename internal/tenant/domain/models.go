// Package domain contains persistence models for tenants and their settings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

// Tenant represents an isolated customer organization. Every other entity in
// the system is scoped to exactly one tenant.
type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// TenantSettings is the stored per-tenant configuration row. Absent values
// fall back to platform defaults when resolved into Settings.
type TenantSettings struct {
	TenantID                snowflake.ID   `gorm:"primaryKey" json:"tenant_id"`
	AutoAssignOnDesigner    bool           `gorm:"not null;default:false" json:"auto_assign_on_designer"`
	NotifyOnAssignment      bool           `gorm:"not null;default:false" json:"notify_on_assignment"`
	SalesCommissionEarnedOn string         `gorm:"type:text" json:"sales_commission_earned_on"`
	DesignerBonusEarnedOn   string         `gorm:"type:text" json:"designer_bonus_earned_on"`
	Currency                string         `gorm:"type:text" json:"currency"`
	WebhookURL              string         `gorm:"type:text" json:"webhook_url"`
	WebhookEvents           datatypes.JSON `gorm:"type:jsonb" json:"webhook_events"`
	CreatedAt               time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TenantSettings) TableName() string { return "tenant_settings" }

// Settings is the fully resolved configuration for one tenant, defaults
// applied. It is resolved once per operation and passed explicitly; nothing
// in the core reads settings ad hoc.
type Settings struct {
	TenantID                snowflake.ID
	AutoAssignOnDesigner    bool
	NotifyOnAssignment      bool
	SalesCommissionEarnedOn workflow.OrderStatus
	DesignerBonusEarnedOn   workflow.OrderStatus
	Currency                string
	WebhookURL              string
	WebhookEvents           []string
}

// WebhookEnabled reports whether the event may be dispatched for this tenant:
// the event must be on the allow-list and a target URL must be configured.
func (s Settings) WebhookEnabled(event string) bool {
	if s.WebhookURL == "" {
		return false
	}
	for _, e := range s.WebhookEvents {
		if e == event {
			return true
		}
	}
	return false
}
