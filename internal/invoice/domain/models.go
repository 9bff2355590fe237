// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

// Invoice bills one or more orders to a client. Amounts are in minor
// currency units. SentAt is stamped the first time the invoice enters SENT
// and never again; PaidAt holds only while the invoice is in PAID.
type Invoice struct {
	ID            snowflake.ID           `gorm:"primaryKey" json:"id"`
	TenantID      snowflake.ID           `gorm:"not null;index;uniqueIndex:ux_invoices_number,priority:1" json:"tenant_id"`
	ClientID      snowflake.ID           `gorm:"not null;index" json:"client_id"`
	InvoiceNumber string                 `gorm:"type:text;not null;uniqueIndex:ux_invoices_number,priority:2" json:"invoice_number"`
	Status        workflow.InvoiceStatus `gorm:"type:text;not null;default:'DRAFT';index" json:"status"`
	TotalAmount   int64                  `gorm:"not null;default:0" json:"total_amount"`
	PaidAmount    int64                  `gorm:"not null;default:0" json:"paid_amount"`
	Currency      string                 `gorm:"type:text;not null" json:"currency"`
	DueAt         *time.Time             `gorm:"index" json:"due_at"`
	SentAt        *time.Time             `json:"sent_at"`
	PaidAt        *time.Time             `json:"paid_at"`
	CreatedAt     time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is a line on an invoice. OrderID links the billed order; a
// manual adjustment line carries no order.
type InvoiceItem struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID  `gorm:"not null;index" json:"tenant_id"`
	InvoiceID   snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	OrderID     *snowflake.ID `gorm:"index" json:"order_id"`
	Description string        `gorm:"type:text" json:"description"`
	Amount      int64         `gorm:"not null" json:"amount"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// InvoicePayment records one payment against an invoice.
type InvoicePayment struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	InvoiceID  snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Amount     int64        `gorm:"not null" json:"amount"`
	Method     string       `gorm:"type:text" json:"method"`
	Reference  string       `gorm:"type:text" json:"reference"`
	ReceivedAt time.Time    `gorm:"not null" json:"received_at"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoicePayment) TableName() string { return "invoice_payments" }
