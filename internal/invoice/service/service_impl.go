package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	orderdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
	webhookdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Defaults *config.DefaultsHolder
	Repo     domain.Repository
	Orders   orderdomain.Repository
	Tenants  tenantdomain.Service
	Hooks    webhookdomain.Dispatcher
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	defaults *config.DefaultsHolder
	repo     domain.Repository
	orders   orderdomain.Repository
	tenants  tenantdomain.Service
	hooks    webhookdomain.Dispatcher
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		defaults: p.Defaults,
		repo:     p.Repo,
		orders:   p.Orders,
		tenants:  p.Tenants,
		hooks:    p.Hooks,
	}
}

func (s *Service) Create(ctx context.Context, tenantID snowflake.ID, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	if req.ClientID == 0 || len(req.Items) == 0 {
		return domain.Invoice{}, domain.ErrInvalidRequest
	}

	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return domain.Invoice{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = settings.Currency
	}

	invoice := domain.Invoice{
		ID:       s.genID.Generate(),
		TenantID: tenantID,
		ClientID: req.ClientID,
		Status:   workflow.InvoiceStatusDraft,
		Currency: currency,
		DueAt:    req.DueAt,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		seq, err := s.repo.NextSequence(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = fmt.Sprintf("INV-%06d", seq)

		var total int64
		items := make([]domain.InvoiceItem, 0, len(req.Items))
		for _, line := range req.Items {
			item := domain.InvoiceItem{
				ID:          s.genID.Generate(),
				TenantID:    tenantID,
				InvoiceID:   invoice.ID,
				OrderID:     line.OrderID,
				Description: line.Description,
			}
			switch {
			case line.OrderID != nil:
				order, err := s.orders.FindByIDForUpdate(ctx, tx, tenantID, *line.OrderID)
				if err != nil {
					return err
				}
				if order == nil {
					return domain.ErrOrderNotFound
				}
				if order.IsInvoiced {
					return domain.ErrOrderInvoiced
				}
				if order.Price == nil {
					return domain.ErrInvalidRequest
				}
				if order.Currency != currency {
					return domain.ErrCurrencyMixed
				}
				item.Amount = *order.Price
				if item.Description == "" {
					item.Description = order.OrderNumber
				}
				order.IsInvoiced = true
				if err := s.orders.Save(ctx, tx, order); err != nil {
					return err
				}
			case line.Amount != nil:
				item.Amount = *line.Amount
			default:
				return domain.ErrInvalidRequest
			}
			total += item.Amount
			items = append(items, item)
		}
		if total <= 0 {
			return domain.ErrNothingToInvoice
		}

		invoice.TotalAmount = total
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		for i := range items {
			if err := s.repo.InsertItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("total_amount", invoice.TotalAmount),
	)

	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID, invoiceID snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, tenantID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) Items(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	return s.repo.ListItems(ctx, s.db, tenantID, invoiceID)
}

func (s *Service) Payments(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]domain.InvoicePayment, error) {
	return s.repo.ListPayments(ctx, s.db, tenantID, invoiceID)
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, req domain.ListInvoicesRequest) (domain.ListInvoicesResponse, error) {
	rows, err := s.repo.List(ctx, s.db, tenantID, req)
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}

	resp := domain.ListInvoicesResponse{}
	limit := req.Limit()
	if len(rows) > limit {
		rows = rows[:limit]
		resp.HasMore = true
		resp.NextPageToken = pagination.EncodeCursor(pagination.Cursor{ID: rows[len(rows)-1].ID.String()})
	}
	resp.Invoices = make([]domain.Invoice, 0, len(rows))
	for _, row := range rows {
		resp.Invoices = append(resp.Invoices, *row)
	}
	return resp, nil
}

func (s *Service) Transition(ctx context.Context, tenantID, invoiceID snowflake.ID, req domain.TransitionRequest) (domain.Invoice, error) {
	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return domain.Invoice{}, err
	}

	var invoice *domain.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		invoice, err = s.repo.FindByIDForUpdate(ctx, tx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		return s.applyTransition(ctx, tx, invoice, settings, req.Target)
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

// applyTransition performs one validated hop inside the caller's
// transaction. SentAt is stamped only on the first departure from DRAFT;
// PaidAt holds only while the invoice sits in PAID.
func (s *Service) applyTransition(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice, settings tenantdomain.Settings, target workflow.InvoiceStatus) error {
	from := invoice.Status
	if err := workflow.ValidateInvoiceTransition(from, target); err != nil {
		return err
	}

	now := s.clock.Now()
	invoice.Status = target
	if target == workflow.InvoiceStatusSent && invoice.SentAt == nil {
		invoice.SentAt = &now
	}
	if target == workflow.InvoiceStatusPaid && invoice.PaidAt == nil {
		invoice.PaidAt = &now
	}
	if from == workflow.InvoiceStatusPaid && target != workflow.InvoiceStatusPaid {
		invoice.PaidAt = nil
	}

	if err := s.repo.Save(ctx, tx, invoice); err != nil {
		return err
	}

	event := "invoice." + strings.ToLower(string(target))
	return s.hooks.Queue(ctx, tx, settings, event, map[string]any{
		"invoice_id":     invoice.ID.String(),
		"invoice_number": invoice.InvoiceNumber,
		"from_status":    string(from),
		"to_status":      string(target),
	})
}

func (s *Service) RecordPayment(ctx context.Context, tenantID, invoiceID snowflake.ID, req domain.RecordPaymentRequest) (domain.Invoice, error) {
	if req.Amount <= 0 {
		return domain.Invoice{}, domain.ErrInvalidPayment
	}

	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return domain.Invoice{}, err
	}

	var invoice *domain.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		invoice, err = s.repo.FindByIDForUpdate(ctx, tx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		switch invoice.Status {
		case workflow.InvoiceStatusSent, workflow.InvoiceStatusPartiallyPaid, workflow.InvoiceStatusOverdue:
		default:
			return domain.ErrInvalidPayment
		}

		now := s.clock.Now()
		if err := s.repo.InsertPayment(ctx, tx, &domain.InvoicePayment{
			ID:         s.genID.Generate(),
			TenantID:   tenantID,
			InvoiceID:  invoiceID,
			Amount:     req.Amount,
			Method:     req.Method,
			Reference:  req.Reference,
			ReceivedAt: now,
		}); err != nil {
			return err
		}

		invoice.PaidAmount += req.Amount
		target := workflow.InvoiceStatusPartiallyPaid
		if invoice.PaidAmount >= invoice.TotalAmount {
			target = workflow.InvoiceStatusPaid
		}
		if target == invoice.Status {
			return s.repo.Save(ctx, tx, invoice)
		}
		return s.applyTransition(ctx, tx, invoice, settings, target)
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -s.defaults.Current().OverdueGraceDays)

	due, err := s.repo.FindDueForOverdue(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for _, candidate := range due {
		invoice := candidate
		err := s.db.Transaction(func(tx *gorm.DB) error {
			locked, err := s.repo.FindByIDForUpdate(ctx, tx, invoice.TenantID, invoice.ID)
			if err != nil {
				return err
			}
			if locked == nil {
				return nil
			}
			switch locked.Status {
			case workflow.InvoiceStatusSent, workflow.InvoiceStatusPartiallyPaid:
			default:
				return nil
			}
			settings, err := s.tenants.Settings(ctx, locked.TenantID)
			if err != nil {
				return err
			}
			if err := s.applyTransition(ctx, tx, locked, settings, workflow.InvoiceStatusOverdue); err != nil {
				return err
			}
			flipped++
			return nil
		})
		if err != nil {
			s.log.Error("overdue sweep failed for invoice",
				zap.String("tenant_id", invoice.TenantID.String()),
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		}
	}

	if flipped > 0 {
		s.log.Info("overdue sweep complete", zap.Int("flipped", flipped))
	}
	return flipped, nil
}
