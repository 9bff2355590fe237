package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	commissiondomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/filestorage"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/notification"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
	webhookdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Defaults    *config.DefaultsHolder
	Repo        domain.Repository
	Tenants     tenantdomain.Service
	Commissions commissiondomain.Service
	Hooks       webhookdomain.Dispatcher
	Notifier    notification.Notifier
	Files       filestorage.Copier
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	defaults    *config.DefaultsHolder
	repo        domain.Repository
	tenants     tenantdomain.Service
	commissions commissiondomain.Service
	hooks       webhookdomain.Dispatcher
	notifier    notification.Notifier
	files       filestorage.Copier
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		defaults:    p.Defaults,
		repo:        p.Repo,
		tenants:     p.Tenants,
		commissions: p.Commissions,
		hooks:       p.Hooks,
		notifier:    p.Notifier,
		files:       p.Files,
	}
}

// Sequence allocation reads MAX(sequence)+1 without a gap lock, so two
// concurrent creates for one tenant can pick the same value. The unique index
// catches the loser; rerunning the transaction reallocates.
const sequenceAttempts = 3

func (s *Service) withSequenceRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < sequenceAttempts; attempt++ {
		err = fn()
		if err == nil || !db.IsDuplicateKeyErr(err) {
			return err
		}
	}
	return err
}

func (s *Service) Create(ctx context.Context, tenantID, actorID snowflake.ID, req domain.CreateOrderRequest) (domain.Order, error) {
	if req.ClientID == 0 {
		return domain.Order{}, domain.ErrInvalidRequest
	}
	if req.Price != nil && *req.Price < 0 {
		return domain.Order{}, domain.ErrInvalidRequest
	}

	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return domain.Order{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = settings.Currency
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	orderType := req.Type
	if orderType == "" {
		orderType = domain.OrderTypeDigitizing
	}

	order := domain.Order{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		ClientID:    req.ClientID,
		Status:      workflow.OrderStatusReceived,
		Priority:    priority,
		Type:        orderType,
		Price:       req.Price,
		Currency:    currency,
		IsQuote:     req.IsQuote,
		SalesUserID: req.SalesUserID,
	}

	err = s.withSequenceRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			seq, err := s.repo.NextSequence(ctx, tx, tenantID)
			if err != nil {
				return err
			}
			order.Sequence = seq
			order.OrderNumber = fmt.Sprintf("%s-%06d", s.defaults.Current().OrderNumberPrefix, seq)
			return s.repo.Insert(ctx, tx, &order)
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)

	return order, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID, orderID snowflake.ID) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, tenantID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	return *order, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, req domain.ListOrdersRequest) (domain.ListOrdersResponse, error) {
	rows, err := s.repo.List(ctx, s.db, tenantID, req)
	if err != nil {
		return domain.ListOrdersResponse{}, err
	}

	resp := domain.ListOrdersResponse{}
	limit := req.Limit()
	if len(rows) > limit {
		rows = rows[:limit]
		resp.HasMore = true
		resp.NextPageToken = pagination.EncodeCursor(pagination.Cursor{ID: rows[len(rows)-1].ID.String()})
	}
	resp.Orders = make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		resp.Orders = append(resp.Orders, *row)
	}
	return resp, nil
}

func (s *Service) SoftDelete(ctx context.Context, tenantID, orderID snowflake.ID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.IsInvoiced {
			return domain.ErrAlreadyInvoiced
		}
		return s.repo.SoftDelete(ctx, tx, tenantID, orderID)
	})
}

func (s *Service) Transition(ctx context.Context, tenantID, orderID snowflake.ID, req domain.TransitionRequest) (domain.Order, error) {
	// REVISION_REQUESTED is reachable only through RequestRevision, which
	// records the rework request alongside the hop.
	if req.Target == workflow.OrderStatusRevisionRequested {
		return domain.Order{}, domain.ErrInvalidRequest
	}

	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return domain.Order{}, err
	}

	var order *domain.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.FindByIDForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		return s.applyTransition(ctx, tx, order, settings, req)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

// applyTransition performs one validated hop inside the caller's transaction:
// status update, first-time lifecycle stamp, exactly one history row, the
// commission triggers and the webhook decision.
func (s *Service) applyTransition(ctx context.Context, tx *gorm.DB, order *domain.Order, settings tenantdomain.Settings, req domain.TransitionRequest) error {
	from := order.Status
	if err := workflow.ValidateOrderTransition(req.Role, from, req.Target); err != nil {
		return err
	}

	now := s.clock.Now()
	order.Status = req.Target
	switch req.Target {
	case workflow.OrderStatusSubmitted:
		if order.SubmittedAt == nil {
			order.SubmittedAt = &now
		}
	case workflow.OrderStatusApproved:
		if order.ApprovedAt == nil {
			order.ApprovedAt = &now
		}
	case workflow.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	}

	if err := s.repo.Save(ctx, tx, order); err != nil {
		return err
	}

	if err := s.repo.InsertHistory(ctx, tx, &domain.OrderStatusHistory{
		ID:              s.genID.Generate(),
		TenantID:        order.TenantID,
		OrderID:         order.ID,
		FromStatus:      from,
		ToStatus:        req.Target,
		ChangedByUserID: req.ActorID,
		ChangedAt:       now,
		Notes:           req.Note,
	}); err != nil {
		return err
	}

	triggers := commissiondomain.EarnTriggers{
		SalesEarnedOn:    settings.SalesCommissionEarnedOn,
		DesignerEarnedOn: settings.DesignerBonusEarnedOn,
		DefaultCurrency:  settings.Currency,
	}
	facts := commissiondomain.OrderFacts{
		TenantID:   order.TenantID,
		OrderID:    order.ID,
		DesignerID: order.DesignerID,
		SalesID:    order.SalesUserID,
		Price:      order.Price,
	}
	if err := s.commissions.ProcessOrderCommissions(ctx, tx, triggers, facts, req.Target, req.DesignerTip); err != nil {
		return err
	}

	event := "order." + strings.ToLower(string(req.Target))
	return s.hooks.Queue(ctx, tx, settings, event, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"from_status":  string(from),
		"to_status":    string(req.Target),
	})
}

func (s *Service) AllowedTransitions(ctx context.Context, tenantID, orderID snowflake.ID, role workflow.Role) ([]workflow.OrderStatus, error) {
	order, err := s.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return workflow.AllowedOrderTransitions(role, order.Status), nil
}

func (s *Service) Assign(ctx context.Context, tenantID, orderID snowflake.ID, req domain.AssignRequest) (domain.Order, error) {
	if req.DesignerID == 0 {
		return domain.Order{}, domain.ErrMissingAssignee
	}

	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return domain.Order{}, err
	}

	var order *domain.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.FindByIDForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if workflow.IsTerminalOrderStatus(order.Status) {
			return domain.ErrInvalidRequest
		}

		now := s.clock.Now()
		if err := s.repo.CloseOpenAssignment(ctx, tx, tenantID, orderID, now); err != nil {
			return err
		}
		if err := s.repo.InsertAssignment(ctx, tx, &domain.OrderAssignment{
			ID:               s.genID.Generate(),
			TenantID:         tenantID,
			OrderID:          orderID,
			DesignerUserID:   req.DesignerID,
			AssignedByUserID: req.AssignedBy,
			AssignedAt:       now,
		}); err != nil {
			return err
		}

		designerID := req.DesignerID
		order.DesignerID = &designerID
		if err := s.repo.Save(ctx, tx, order); err != nil {
			return err
		}

		if settings.AutoAssignOnDesigner && order.Status == workflow.OrderStatusReceived {
			return s.applyTransition(ctx, tx, order, settings, domain.TransitionRequest{
				Target:  workflow.OrderStatusAssigned,
				ActorID: req.AssignedBy,
				Note:    "Auto-assigned when designer was assigned",
			})
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if settings.NotifyOnAssignment {
		if err := s.notifier.OrderAssigned(ctx, notification.AssignmentEvent{
			TenantID:   tenantID,
			OrderID:    orderID,
			DesignerID: req.DesignerID,
			AssignedBy: req.AssignedBy,
		}); err != nil {
			s.log.Warn("assignment notification failed",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		}
	}

	return *order, nil
}

func (s *Service) EndAssignment(ctx context.Context, tenantID, orderID, actorID snowflake.ID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.CloseOpenAssignment(ctx, tx, tenantID, orderID, s.clock.Now()); err != nil {
			return err
		}
		order.DesignerID = nil
		return s.repo.Save(ctx, tx, order)
	})
}

func (s *Service) Assignments(ctx context.Context, tenantID, orderID snowflake.ID) ([]domain.OrderAssignment, error) {
	return s.repo.ListAssignments(ctx, s.db, tenantID, orderID)
}

func (s *Service) History(ctx context.Context, tenantID, orderID snowflake.ID) ([]domain.OrderStatusHistory, error) {
	return s.repo.ListHistory(ctx, s.db, tenantID, orderID)
}

func (s *Service) RequestRevision(ctx context.Context, tenantID, orderID, requestedBy snowflake.ID, notes string) (domain.OrderRevision, error) {
	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return domain.OrderRevision{}, err
	}

	revision := domain.OrderRevision{
		ID:                s.genID.Generate(),
		TenantID:          tenantID,
		OrderID:           orderID,
		RequestedByUserID: requestedBy,
		Notes:             notes,
		Status:            domain.RevisionStatusOpen,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}

		// An order already parked in REVISION_REQUESTED accepts further
		// revision requests without another hop.
		if order.Status != workflow.OrderStatusRevisionRequested {
			if err := s.applyTransition(ctx, tx, order, settings, domain.TransitionRequest{
				Target:  workflow.OrderStatusRevisionRequested,
				ActorID: requestedBy,
				Note:    "Revision requested",
			}); err != nil {
				return err
			}
		}

		revision.CreatedAt = s.clock.Now()
		return s.repo.InsertRevision(ctx, tx, &revision)
	})
	if err != nil {
		return domain.OrderRevision{}, err
	}
	return revision, nil
}

func (s *Service) ResolveRevision(ctx context.Context, tenantID, revisionID, actorID snowflake.ID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		revision, err := s.repo.FindRevisionByID(ctx, tx, tenantID, revisionID)
		if err != nil {
			return err
		}
		if revision == nil {
			return domain.ErrNotFound
		}
		if revision.Status == domain.RevisionStatusResolved {
			return nil
		}
		now := s.clock.Now()
		revision.Status = domain.RevisionStatusResolved
		revision.ResolvedAt = &now
		return s.repo.SaveRevision(ctx, tx, revision)
	})
}

func (s *Service) CreateRevisionOrder(ctx context.Context, tenantID, parentOrderID, actorID snowflake.ID) (domain.Order, error) {
	var child domain.Order
	err := s.withSequenceRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			parent, err := s.repo.FindByIDForUpdate(ctx, tx, tenantID, parentOrderID)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrNotFound
			}

			siblings, err := s.repo.CountChildren(ctx, tx, tenantID, parentOrderID)
			if err != nil {
				return err
			}
			seq, err := s.repo.NextSequence(ctx, tx, tenantID)
			if err != nil {
				return err
			}

			parentID := parent.ID
			child = domain.Order{
				ID:            s.genID.Generate(),
				TenantID:      tenantID,
				ClientID:      parent.ClientID,
				Sequence:      seq,
				OrderNumber:   fmt.Sprintf("%s-R%d", parent.OrderNumber, siblings+1),
				Status:        workflow.OrderStatusReceived,
				Priority:      parent.Priority,
				Type:          parent.Type,
				Currency:      parent.Currency,
				SalesUserID:   parent.SalesUserID,
				ParentOrderID: &parentID,
			}
			return s.repo.Insert(ctx, tx, &child)
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.files.CopyOrderFiles(ctx, tenantID, parentOrderID, child.ID); err != nil {
		s.log.Warn("revision file copy failed",
			zap.String("parent_order_id", parentOrderID.String()),
			zap.String("order_id", child.ID.String()),
			zap.Error(err),
		)
	}

	return child, nil
}

func (s *Service) AddComment(ctx context.Context, tenantID, orderID snowflake.ID, req domain.CommentRequest) (domain.OrderComment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return domain.OrderComment{}, domain.ErrInvalidRequest
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.CommentVisibilityInternal
	}
	if visibility != domain.CommentVisibilityInternal && visibility != domain.CommentVisibilityClient {
		return domain.OrderComment{}, domain.ErrInvalidRequest
	}

	order, err := s.repo.FindByID(ctx, s.db, tenantID, orderID)
	if err != nil {
		return domain.OrderComment{}, err
	}
	if order == nil {
		return domain.OrderComment{}, domain.ErrNotFound
	}

	comment := domain.OrderComment{
		ID:              s.genID.Generate(),
		TenantID:        tenantID,
		OrderID:         orderID,
		AuthorUserID:    req.AuthorID,
		Body:            body,
		Visibility:      visibility,
		ParentCommentID: req.ParentCommentID,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.repo.InsertComment(ctx, s.db, &comment); err != nil {
		return domain.OrderComment{}, err
	}
	return comment, nil
}

func (s *Service) ListComments(ctx context.Context, tenantID, orderID snowflake.ID, includeInternal bool) ([]domain.OrderComment, error) {
	return s.repo.ListComments(ctx, s.db, tenantID, orderID, includeInternal)
}
