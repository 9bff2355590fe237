package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Invoice, error) {
	return r.find(ctx, db, tenantID, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Invoice, error) {
	return r.find(ctx, db.Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).First(&invoice, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Save(invoice).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, req domain.ListInvoicesRequest) ([]*domain.Invoice, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("tenant_id = ?", tenantID)
	if req.Status != nil {
		stmt = stmt.Where("status = ?", *req.Status)
	}
	if req.ClientID != nil {
		stmt = stmt.Where("client_id = ?", *req.ClientID)
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.ID != "" {
			after, err := snowflake.ParseString(cursor.ID)
			if err != nil {
				return nil, err
			}
			stmt = stmt.Where("id < ?", after)
		}
	}

	var invoices []*domain.Invoice
	err := stmt.
		Order("id desc").
		Limit(req.Limit() + 1).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.InvoiceItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, tenantID, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.InvoicePayment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, tenantID, invoiceID snowflake.ID) ([]domain.InvoicePayment, error) {
	var payments []domain.InvoicePayment
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("received_at asc, id asc").
		Find(&payments).Error
	return payments, err
}

func (r *repo) FindDueForOverdue(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	err := db.WithContext(ctx).
		Where("status IN ?", []workflow.InvoiceStatus{workflow.InvoiceStatusSent, workflow.InvoiceStatusPartiallyPaid}).
		Where("due_at IS NOT NULL AND due_at < ?", cutoff).
		Order("id asc").
		Find(&invoices).Error
	return invoices, err
}
