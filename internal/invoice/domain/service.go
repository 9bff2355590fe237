package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

// CreateInvoiceItemRequest is one requested line. Order lines price
// themselves from the order; adjustment lines carry an explicit amount.
type CreateInvoiceItemRequest struct {
	OrderID     *snowflake.ID `json:"order_id,string"`
	Description string        `json:"description"`
	Amount      *int64        `json:"amount"`
}

type CreateInvoiceRequest struct {
	ClientID snowflake.ID               `json:"client_id,string"`
	Currency string                     `json:"currency"`
	DueAt    *time.Time                 `json:"due_at"`
	Items    []CreateInvoiceItemRequest `json:"items"`
}

type TransitionRequest struct {
	Target workflow.InvoiceStatus
	Note   string
}

type RecordPaymentRequest struct {
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

type ListInvoicesRequest struct {
	pagination.Pagination
	Status   *workflow.InvoiceStatus
	ClientID *snowflake.ID
}

type ListInvoicesResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	// Create builds a DRAFT invoice from order and adjustment lines,
	// marking each billed order invoiced. An already-invoiced order aborts
	// the whole creation.
	Create(ctx context.Context, tenantID snowflake.ID, req CreateInvoiceRequest) (Invoice, error)

	GetByID(ctx context.Context, tenantID, invoiceID snowflake.ID) (Invoice, error)
	Items(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]InvoiceItem, error)
	Payments(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]InvoicePayment, error)
	List(ctx context.Context, tenantID snowflake.ID, req ListInvoicesRequest) (ListInvoicesResponse, error)

	// Transition applies one validated status hop, stamping SentAt on the
	// first entry into SENT and maintaining PaidAt.
	Transition(ctx context.Context, tenantID, invoiceID snowflake.ID, req TransitionRequest) (Invoice, error)

	// RecordPayment applies a payment and moves the invoice to
	// PARTIALLY_PAID or PAID depending on the running total.
	RecordPayment(ctx context.Context, tenantID, invoiceID snowflake.ID, req RecordPaymentRequest) (Invoice, error)

	// MarkOverdue sweeps payable invoices past their due date into OVERDUE.
	// A failed invoice is logged and skipped; the count of flipped invoices
	// is returned either way.
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

var (
	ErrNotFound         = errors.New("invoice_not_found")
	ErrInvalidRequest   = errors.New("invalid_invoice_request")
	ErrOrderNotFound    = errors.New("invoiced_order_not_found")
	ErrOrderInvoiced    = errors.New("order_already_invoiced")
	ErrInvalidPayment   = errors.New("invalid_payment")
	ErrCurrencyMixed    = errors.New("mixed_currencies")
	ErrNothingToInvoice = errors.New("nothing_to_invoice")
)
