package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

type CreateOrderRequest struct {
	ClientID    snowflake.ID `json:"client_id,string"`
	Priority    Priority     `json:"priority"`
	Type        OrderType    `json:"type"`
	Price       *int64       `json:"price"`
	Currency    string       `json:"currency"`
	IsQuote     bool         `json:"is_quote"`
	SalesUserID *snowflake.ID `json:"sales_user_id,string"`
}

// TransitionRequest drives one workflow hop. Role scopes the allowed target
// set; DesignerTip rides along so a tip granted at delivery is evaluated by
// the commission trigger inside the same transaction.
type TransitionRequest struct {
	Target      workflow.OrderStatus
	Role        workflow.Role
	ActorID     snowflake.ID
	Note        string
	DesignerTip int64
}

type AssignRequest struct {
	DesignerID snowflake.ID
	AssignedBy snowflake.ID
}

type CommentRequest struct {
	AuthorID        snowflake.ID
	Body            string
	Visibility      CommentVisibility
	ParentCommentID *snowflake.ID
}

type ListOrdersRequest struct {
	pagination.Pagination
	Status     *workflow.OrderStatus
	DesignerID *snowflake.ID
	ClientID   *snowflake.ID
}

type ListOrdersResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

type Service interface {
	Create(ctx context.Context, tenantID, actorID snowflake.ID, req CreateOrderRequest) (Order, error)
	GetByID(ctx context.Context, tenantID, orderID snowflake.ID) (Order, error)
	List(ctx context.Context, tenantID snowflake.ID, req ListOrdersRequest) (ListOrdersResponse, error)
	SoftDelete(ctx context.Context, tenantID, orderID snowflake.ID) error

	// Transition applies one validated workflow hop: status update,
	// lifecycle timestamp, exactly one history row, commission triggers and
	// the webhook decision, all in a single transaction.
	Transition(ctx context.Context, tenantID, orderID snowflake.ID, req TransitionRequest) (Order, error)

	// AllowedTransitions exposes both the unrestricted and role-scoped
	// target sets so callers can render and validate correctly.
	AllowedTransitions(ctx context.Context, tenantID, orderID snowflake.ID, role workflow.Role) ([]workflow.OrderStatus, error)

	// Assign makes the designer the order's single active assignee,
	// closing any open span in the same transaction.
	Assign(ctx context.Context, tenantID, orderID snowflake.ID, req AssignRequest) (Order, error)

	// EndAssignment closes the open span without a replacement, leaving the
	// order designer-less.
	EndAssignment(ctx context.Context, tenantID, orderID, actorID snowflake.ID) error

	Assignments(ctx context.Context, tenantID, orderID snowflake.ID) ([]OrderAssignment, error)
	History(ctx context.Context, tenantID, orderID snowflake.ID) ([]OrderStatusHistory, error)

	// RequestRevision records a rework request and forces the order into
	// REVISION_REQUESTED unless it is already there.
	RequestRevision(ctx context.Context, tenantID, orderID, requestedBy snowflake.ID, notes string) (OrderRevision, error)
	ResolveRevision(ctx context.Context, tenantID, revisionID, actorID snowflake.ID) error

	// CreateRevisionOrder spawns a child order numbered off the parent,
	// copying input files by reference.
	CreateRevisionOrder(ctx context.Context, tenantID, parentOrderID, actorID snowflake.ID) (Order, error)

	AddComment(ctx context.Context, tenantID, orderID snowflake.ID, req CommentRequest) (OrderComment, error)
	ListComments(ctx context.Context, tenantID, orderID snowflake.ID, includeInternal bool) ([]OrderComment, error)
}

var (
	ErrNotFound = errors.New("order_not_found")
	// ErrMissingAssignee means no usable user was given to own the order.
	// It aborts the operation before any write.
	ErrMissingAssignee = errors.New("missing_assignee")
	ErrInvalidRequest  = errors.New("invalid_order_request")
	ErrAlreadyInvoiced = errors.New("order_already_invoiced")
)
