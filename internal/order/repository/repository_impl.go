package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Order, error) {
	return r.find(ctx, db, tenantID, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Order, error) {
	return r.find(ctx, db.Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).First(&order, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Save(order).Error
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&domain.Order{}, id).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, req domain.ListOrdersRequest) ([]*domain.Order, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("tenant_id = ?", tenantID)
	if req.Status != nil {
		stmt = stmt.Where("status = ?", *req.Status)
	}
	if req.DesignerID != nil {
		stmt = stmt.Where("designer_id = ?", *req.DesignerID)
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

	var orders []*domain.Order
	err := stmt.
		Order("id desc").
		Limit(req.Limit() + 1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (int64, error) {
	var max int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Unscoped().
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *repo) CountChildren(ctx context.Context, db *gorm.DB, tenantID, parentID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Unscoped().
		Where("tenant_id = ? AND parent_order_id = ?", tenantID, parentID).
		Count(&count).Error
	return count, err
}

func (r *repo) InsertAssignment(ctx context.Context, db *gorm.DB, assignment *domain.OrderAssignment) error {
	return db.WithContext(ctx).Create(assignment).Error
}

func (r *repo) CloseOpenAssignment(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID, endedAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.OrderAssignment{}).
		Where("tenant_id = ? AND order_id = ? AND ended_at IS NULL", tenantID, orderID).
		Update("ended_at", endedAt).Error
}

func (r *repo) ListAssignments(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID) ([]domain.OrderAssignment, error) {
	var assignments []domain.OrderAssignment
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("assigned_at asc, id asc").
		Find(&assignments).Error
	return assignments, err
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entry *domain.OrderStatusHistory) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID) ([]domain.OrderStatusHistory, error) {
	var entries []domain.OrderStatusHistory
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("changed_at asc, id asc").
		Find(&entries).Error
	return entries, err
}

func (r *repo) InsertRevision(ctx context.Context, db *gorm.DB, revision *domain.OrderRevision) error {
	return db.WithContext(ctx).Create(revision).Error
}

func (r *repo) FindRevisionByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.OrderRevision, error) {
	var revision domain.OrderRevision
	err := db.WithContext(ctx).First(&revision, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &revision, nil
}

func (r *repo) SaveRevision(ctx context.Context, db *gorm.DB, revision *domain.OrderRevision) error {
	return db.WithContext(ctx).Save(revision).Error
}

func (r *repo) InsertComment(ctx context.Context, db *gorm.DB, comment *domain.OrderComment) error {
	return db.WithContext(ctx).Create(comment).Error
}

func (r *repo) ListComments(ctx context.Context, db *gorm.DB, tenantID, orderID snowflake.ID, includeInternal bool) ([]domain.OrderComment, error) {
	stmt := db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID)
	if !includeInternal {
		stmt = stmt.Where("visibility = ?", domain.CommentVisibilityClient)
	}

	var comments []domain.OrderComment
	err := stmt.Order("created_at asc, id asc").Find(&comments).Error
	return comments, err
}
