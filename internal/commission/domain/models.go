// Package domain contains persistence models for commission rules and earned
// commissions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

// RoleType scopes a rule or commission to the capacity the user acted in.
type RoleType string

const (
	RoleTypeSales    RoleType = "sales"
	RoleTypeDesigner RoleType = "designer"
)

// RuleType selects the base-amount formula.
type RuleType string

const (
	RuleTypeFixed   RuleType = "fixed"
	RuleTypePercent RuleType = "percent"
	RuleTypeHybrid  RuleType = "hybrid"
)

// CommissionRule configures how a user earns on orders. At most one active
// rule may exist per (tenant, user, role_type); the unique index is the data
// layer guarantee, the service checks again before insert. Amounts are in
// minor currency units, PercentRate is a percentage (10 means 10%).
type CommissionRule struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_commission_rules_scope,priority:1,where:is_active = true" json:"tenant_id"`
	UserID      snowflake.ID `gorm:"not null;uniqueIndex:ux_commission_rules_scope,priority:2,where:is_active = true" json:"user_id"`
	RoleType    RoleType     `gorm:"type:text;not null;uniqueIndex:ux_commission_rules_scope,priority:3,where:is_active = true" json:"role_type"`
	Type        RuleType     `gorm:"type:text;not null" json:"type"`
	FixedAmount int64        `gorm:"not null;default:0" json:"fixed_amount"`
	PercentRate float64      `gorm:"not null;default:0" json:"percent_rate"`
	Currency    string       `gorm:"type:text;not null" json:"currency"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CommissionRule) TableName() string { return "commission_rules" }

// RuleSnapshot is the frozen copy of the rule parameters captured when a
// commission is calculated. It is a value, not a reference: later edits or
// deletion of the rule never change what was earned.
type RuleSnapshot struct {
	Type        RuleType `json:"type"`
	FixedAmount int64    `json:"fixed_amount"`
	PercentRate float64  `json:"percent_rate"`
	Currency    string   `json:"currency"`
}

// Commission is one earned record. The (tenant, order, user, role_type,
// earned_on_status) tuple is the dedup key and is DB-enforced; concurrent
// duplicate inserts surface as unique violations and resolve to the existing
// row.
type Commission struct {
	ID             snowflake.ID         `gorm:"primaryKey" json:"id"`
	TenantID       snowflake.ID         `gorm:"not null;index;uniqueIndex:ux_commissions_dedup,priority:1" json:"tenant_id"`
	OrderID        snowflake.ID         `gorm:"not null;index;uniqueIndex:ux_commissions_dedup,priority:2" json:"order_id"`
	UserID         snowflake.ID         `gorm:"not null;index;uniqueIndex:ux_commissions_dedup,priority:3" json:"user_id"`
	RoleType       RoleType             `gorm:"type:text;not null;uniqueIndex:ux_commissions_dedup,priority:4" json:"role_type"`
	EarnedOnStatus workflow.OrderStatus `gorm:"type:text;not null;uniqueIndex:ux_commissions_dedup,priority:5" json:"earned_on_status"`
	BaseAmount     int64                `gorm:"not null;default:0" json:"base_amount"`
	ExtraAmount    int64                `gorm:"not null;default:0" json:"extra_amount"`
	TotalAmount    int64                `gorm:"not null;default:0" json:"total_amount"`
	Currency       string               `gorm:"type:text;not null" json:"currency"`
	EarnedAt       time.Time            `gorm:"not null" json:"earned_at"`
	RuleSnapshot   *RuleSnapshot        `gorm:"serializer:json" json:"rule_snapshot"`
	IsPaid         bool                 `gorm:"not null;default:false" json:"is_paid"`
	PaidAt         *time.Time           `json:"paid_at"`
	Notes          string               `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Commission) TableName() string { return "commissions" }

// Snapshot freezes the rule's parameters.
func (r CommissionRule) Snapshot() *RuleSnapshot {
	return &RuleSnapshot{
		Type:        r.Type,
		FixedAmount: r.FixedAmount,
		PercentRate: r.PercentRate,
		Currency:    r.Currency,
	}
}
