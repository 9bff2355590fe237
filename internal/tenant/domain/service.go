package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type UpdateSettingsRequest struct {
	AutoAssignOnDesigner    *bool    `json:"auto_assign_on_designer"`
	NotifyOnAssignment      *bool    `json:"notify_on_assignment"`
	SalesCommissionEarnedOn *string  `json:"sales_commission_earned_on"`
	DesignerBonusEarnedOn   *string  `json:"designer_bonus_earned_on"`
	Currency                *string  `json:"currency"`
	WebhookURL              *string  `json:"webhook_url"`
	WebhookEvents           []string `json:"webhook_events"`
}

type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (Tenant, error)
	GetByID(ctx context.Context, id snowflake.ID) (Tenant, error)
	// Settings resolves the tenant's stored settings with platform defaults
	// applied. A missing settings row yields pure defaults, not an error.
	Settings(ctx context.Context, tenantID snowflake.ID) (Settings, error)
	UpdateSettings(ctx context.Context, tenantID snowflake.ID, req UpdateSettingsRequest) (Settings, error)
}

var (
	ErrNotFound     = errors.New("tenant_not_found")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidSlug  = errors.New("invalid_slug")
	ErrInvalidValue = errors.New("invalid_setting_value")
)
