package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

// EarnInput describes one potential earning evaluated against the dedup key.
type EarnInput struct {
	TenantID        snowflake.ID
	OrderID         snowflake.ID
	UserID          snowflake.ID
	RoleType        RoleType
	EarnedOnStatus  workflow.OrderStatus
	OrderPrice      *int64
	ExtraAmount     int64
	DefaultCurrency string
}

// OrderFacts is the slice of an order the trigger evaluation needs. Keeping it
// here avoids a dependency on the order package.
type OrderFacts struct {
	TenantID   snowflake.ID
	OrderID    snowflake.ID
	DesignerID *snowflake.ID
	SalesID    *snowflake.ID
	Price      *int64
}

// EarnTriggers is the per-tenant configuration of which status earns for whom.
type EarnTriggers struct {
	SalesEarnedOn    workflow.OrderStatus
	DesignerEarnedOn workflow.OrderStatus
	DefaultCurrency  string
}

type CreateRuleRequest struct {
	UserID      snowflake.ID `json:"user_id,string"`
	RoleType    RoleType     `json:"role_type"`
	Type        RuleType     `json:"type"`
	FixedAmount int64        `json:"fixed_amount"`
	PercentRate float64      `json:"percent_rate"`
	Currency    string       `json:"currency"`
}

type ListCommissionsFilter struct {
	UserID   *snowflake.ID
	OrderID  *snowflake.ID
	RoleType *RoleType
	IsPaid   *bool
}

type Service interface {
	// ResolveRule finds the single active rule for (tenant, user, role).
	// No rule is an expected outcome, reported as (nil, nil).
	ResolveRule(ctx context.Context, tenantID, userID snowflake.ID, roleType RoleType) (*CommissionRule, error)

	// CalculateBase computes the rule's base amount for a price.
	// Percent and hybrid rules require a positive price; without one the
	// result is ErrUnresolvableBase, which is distinct from earning zero.
	CalculateBase(rule *CommissionRule, price *int64) (int64, error)

	// CalculateAndCreate evaluates one earning inside the caller's
	// transaction. Safe to invoke repeatedly: an existing row for the dedup
	// key is returned unchanged. A nil result with nil error means nothing
	// was earned.
	CalculateAndCreate(ctx context.Context, tx *gorm.DB, input EarnInput) (*Commission, error)

	// ProcessOrderCommissions runs the configured triggers for a status
	// change, inside the transition's transaction.
	ProcessOrderCommissions(ctx context.Context, tx *gorm.DB, triggers EarnTriggers, facts OrderFacts, newStatus workflow.OrderStatus, designerTip int64) error

	// UpdateExtraAmount is the only mutation path for a commission's
	// financial fields after creation.
	UpdateExtraAmount(ctx context.Context, tenantID, commissionID snowflake.ID, newExtra int64, notes string) (Commission, error)

	MarkPaid(ctx context.Context, tenantID, commissionID snowflake.ID) (Commission, error)

	List(ctx context.Context, tenantID snowflake.ID, filter ListCommissionsFilter) ([]Commission, error)

	CreateRule(ctx context.Context, tenantID snowflake.ID, req CreateRuleRequest) (CommissionRule, error)
	ListRules(ctx context.Context, tenantID snowflake.ID) ([]CommissionRule, error)
	DeactivateRule(ctx context.Context, tenantID, ruleID snowflake.ID) error
}

var (
	// ErrNoActiveRule is an expected, logged condition, not a failure.
	ErrNoActiveRule = errors.New("no_active_rule")
	// ErrUnresolvableBase means a percent or hybrid rule had no usable price.
	ErrUnresolvableBase = errors.New("unresolvable_base")
	ErrNotFound         = errors.New("commission_not_found")
	ErrRuleExists       = errors.New("active_rule_exists")
	ErrInvalidRule      = errors.New("invalid_rule")
)
