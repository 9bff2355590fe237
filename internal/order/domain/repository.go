package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Order, error)
	// FindByIDForUpdate locks the row for the duration of the transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Order, error)
	Save(ctx context.Context, db *gorm.DB, order *Order) error
	SoftDelete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, req ListOrdersRequest) ([]*Order, error)
	// NextSequence returns the next per-tenant sequence value.
	NextSequence(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (int64, error)
	CountChildren(ctx context.Context, db *gorm.DB, tenantID, parentID snowflake.ID) (int64, error)

	InsertAssignment(ctx context.Context, db *gorm.DB, assignment *OrderAssignment) error
	// CloseOpenAssignment stamps ended_at on the order's open span, if any.
	CloseOpenAssignment(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID, endedAt time.Time) error
	ListAssignments(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID) ([]OrderAssignment, error)

	InsertHistory(ctx context.Context, db *gorm.DB, entry *OrderStatusHistory) error
	ListHistory(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID) ([]OrderStatusHistory, error)

	InsertRevision(ctx context.Context, db *gorm.DB, revision *OrderRevision) error
	FindRevisionByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*OrderRevision, error)
	SaveRevision(ctx context.Context, db *gorm.DB, revision *OrderRevision) error

	InsertComment(ctx context.Context, db *gorm.DB, comment *OrderComment) error
	ListComments(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID, includeInternal bool) ([]OrderComment, error)
}
