package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertRule(ctx context.Context, db *gorm.DB, rule *domain.CommissionRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) FindActiveRules(ctx context.Context, db *gorm.DB, tenantID, userID snowflake.ID, roleType domain.RoleType) ([]domain.CommissionRule, error) {
	var rules []domain.CommissionRule
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND role_type = ? AND is_active = ?", tenantID, userID, roleType, true).
		Order("id asc").
		Find(&rules).Error
	return rules, err
}

func (r *repo) ListRules(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]domain.CommissionRule, error) {
	var rules []domain.CommissionRule
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id asc").
		Find(&rules).Error
	return rules, err
}

func (r *repo) FindRuleByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.CommissionRule, error) {
	var rule domain.CommissionRule
	err := db.WithContext(ctx).First(&rule, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repo) SaveRule(ctx context.Context, db *gorm.DB, rule *domain.CommissionRule) error {
	return db.WithContext(ctx).Save(rule).Error
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, commission *domain.Commission) (bool, error) {
	// DO NOTHING on the dedup key instead of raising the unique violation:
	// on postgres a failed statement aborts the whole transaction.
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "order_id"},
				{Name: "user_id"},
				{Name: "role_type"},
				{Name: "earned_on_status"},
			},
			DoNothing: true,
		}).
		Create(commission)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByDedupKey(ctx context.Context, db *gorm.DB, tenantID, orderID, userID snowflake.ID, roleType domain.RoleType, earnedOn workflow.OrderStatus) (*domain.Commission, error) {
	var commission domain.Commission
	err := db.WithContext(ctx).First(&commission,
		"tenant_id = ? AND order_id = ? AND user_id = ? AND role_type = ? AND earned_on_status = ?",
		tenantID, orderID, userID, roleType, earnedOn,
	).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Commission, error) {
	var commission domain.Commission
	err := db.WithContext(ctx).First(&commission, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, commission *domain.Commission) error {
	return db.WithContext(ctx).Save(commission).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter domain.ListCommissionsFilter) ([]domain.Commission, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Commission{}).
		Where("tenant_id = ?", tenantID)
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}
	if filter.OrderID != nil {
		stmt = stmt.Where("order_id = ?", *filter.OrderID)
	}
	if filter.RoleType != nil {
		stmt = stmt.Where("role_type = ?", *filter.RoleType)
	}
	if filter.IsPaid != nil {
		stmt = stmt.Where("is_paid = ?", *filter.IsPaid)
	}

	var commissions []domain.Commission
	err := stmt.Order("earned_at desc, id desc").Find(&commissions).Error
	return commissions, err
}
