// Package domain contains persistence models for orders and their side
// trails: assignments, status history, revisions and comments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

// Priority of an order within a tenant's queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityRush   Priority = "rush"
)

// OrderType is the kind of digitizing work requested.
type OrderType string

const (
	OrderTypeDigitizing OrderType = "digitizing"
	OrderTypeVector     OrderType = "vector"
	OrderTypePatch      OrderType = "patch"
)

// Order is the central entity. Sequence is per-tenant and monotonic;
// OrderNumber derives from it and never changes once assigned. Revision
// orders chain to their parent through ParentOrderID (a tree, never a cycle)
// and number themselves off the parent plus a suffix counter. Price is in
// minor currency units and may be absent for quotes still being scoped.
type Order struct {
	ID            snowflake.ID         `gorm:"primaryKey" json:"id"`
	TenantID      snowflake.ID         `gorm:"not null;index;uniqueIndex:ux_orders_number,priority:1;uniqueIndex:ux_orders_sequence,priority:1" json:"tenant_id"`
	ClientID      snowflake.ID         `gorm:"not null;index" json:"client_id"`
	Sequence      int64                `gorm:"not null;uniqueIndex:ux_orders_sequence,priority:2" json:"sequence"`
	OrderNumber   string               `gorm:"type:text;not null;uniqueIndex:ux_orders_number,priority:2" json:"order_number"`
	Status        workflow.OrderStatus `gorm:"type:text;not null;default:'RECEIVED';index" json:"status"`
	Priority      Priority             `gorm:"type:text;not null;default:'normal'" json:"priority"`
	Type          OrderType            `gorm:"type:text;not null;default:'digitizing'" json:"type"`
	DesignerID    *snowflake.ID        `gorm:"index" json:"designer_id"`
	SalesUserID   *snowflake.ID        `gorm:"index" json:"sales_user_id"`
	Price         *int64               `json:"price"`
	Currency      string               `gorm:"type:text;not null" json:"currency"`
	IsQuote       bool                 `gorm:"not null;default:false" json:"is_quote"`
	IsInvoiced    bool                 `gorm:"not null;default:false" json:"is_invoiced"`
	ParentOrderID *snowflake.ID        `gorm:"index" json:"parent_order_id"`
	SubmittedAt   *time.Time           `json:"submitted_at"`
	ApprovedAt    *time.Time           `json:"approved_at"`
	DeliveredAt   *time.Time           `json:"delivered_at"`
	CreatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt     gorm.DeletedAt       `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderAssignment is one assignment span. At most one row per order has
// EndedAt null; opening a new span closes the previous one in the same
// transaction.
type OrderAssignment struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID         snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	OrderID          snowflake.ID `gorm:"not null;index" json:"order_id"`
	DesignerUserID   snowflake.ID `gorm:"not null;index" json:"designer_user_id"`
	AssignedByUserID snowflake.ID `gorm:"not null" json:"assigned_by_user_id"`
	AssignedAt       time.Time    `gorm:"not null" json:"assigned_at"`
	EndedAt          *time.Time   `gorm:"index" json:"ended_at"`
}

// TableName sets the database table name.
func (OrderAssignment) TableName() string { return "order_assignments" }

// OrderStatusHistory is the append-only audit log of transitions, including
// system-invoked ones. Rows are never mutated or deleted.
type OrderStatusHistory struct {
	ID              snowflake.ID         `gorm:"primaryKey" json:"id"`
	TenantID        snowflake.ID         `gorm:"not null;index" json:"tenant_id"`
	OrderID         snowflake.ID         `gorm:"not null;index" json:"order_id"`
	FromStatus      workflow.OrderStatus `gorm:"type:text;not null" json:"from_status"`
	ToStatus        workflow.OrderStatus `gorm:"type:text;not null" json:"to_status"`
	ChangedByUserID snowflake.ID         `gorm:"not null" json:"changed_by_user_id"`
	ChangedAt       time.Time            `gorm:"not null" json:"changed_at"`
	Notes           string               `gorm:"type:text" json:"notes"`
}

// TableName sets the database table name.
func (OrderStatusHistory) TableName() string { return "order_status_histories" }

// RevisionStatus of a rework request.
type RevisionStatus string

const (
	RevisionStatusOpen     RevisionStatus = "open"
	RevisionStatusResolved RevisionStatus = "resolved"
)

// OrderRevision is a request for rework on an order.
type OrderRevision struct {
	ID                snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID          snowflake.ID   `gorm:"not null;index" json:"tenant_id"`
	OrderID           snowflake.ID   `gorm:"not null;index" json:"order_id"`
	RequestedByUserID snowflake.ID   `gorm:"not null" json:"requested_by_user_id"`
	Notes             string         `gorm:"type:text" json:"notes"`
	Status            RevisionStatus `gorm:"type:text;not null;default:'open'" json:"status"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ResolvedAt        *time.Time     `json:"resolved_at"`
}

// TableName sets the database table name.
func (OrderRevision) TableName() string { return "order_revisions" }

// CommentVisibility controls who may read a comment.
type CommentVisibility string

const (
	CommentVisibilityInternal CommentVisibility = "internal"
	CommentVisibilityClient   CommentVisibility = "client"
)

// OrderComment is a threaded comment on an order.
type OrderComment struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID        snowflake.ID      `gorm:"not null;index" json:"tenant_id"`
	OrderID         snowflake.ID      `gorm:"not null;index" json:"order_id"`
	AuthorUserID    snowflake.ID      `gorm:"not null" json:"author_user_id"`
	Body            string            `gorm:"type:text;not null" json:"body"`
	Visibility      CommentVisibility `gorm:"type:text;not null;default:'internal'" json:"visibility"`
	ParentCommentID *snowflake.ID     `gorm:"index" json:"parent_comment_id"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrderComment) TableName() string { return "order_comments" }
