package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Invoice, error)
	// FindByIDForUpdate locks the row for the duration of the transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Invoice, error)
	Save(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, req ListInvoicesRequest) ([]*Invoice, error)
	// NextSequence returns the next per-tenant invoice number ordinal.
	NextSequence(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (int64, error)

	InsertItem(ctx context.Context, db *gorm.DB, item *InvoiceItem) error
	ListItems(ctx context.Context, db *gorm.DB, tenantID, invoiceID snowflake.ID) ([]InvoiceItem, error)

	InsertPayment(ctx context.Context, db *gorm.DB, payment *InvoicePayment) error
	ListPayments(ctx context.Context, db *gorm.DB, tenantID, invoiceID snowflake.ID) ([]InvoicePayment, error)

	// FindDueForOverdue lists SENT and PARTIALLY_PAID invoices whose due
	// date is strictly before the cutoff.
	FindDueForOverdue(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*Invoice, error)
}
