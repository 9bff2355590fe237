package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

type Repository interface {
	InsertRule(ctx context.Context, db *gorm.DB, rule *CommissionRule) error
	FindActiveRules(ctx context.Context, db *gorm.DB, tenantID, userID snowflake.ID, roleType RoleType) ([]CommissionRule, error)
	ListRules(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]CommissionRule, error)
	FindRuleByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*CommissionRule, error)
	SaveRule(ctx context.Context, db *gorm.DB, rule *CommissionRule) error

	// Insert writes the commission unless a row with the same dedup key
	// already exists. It reports whether a row was written; a conflict is
	// not an error, so the surrounding transaction stays usable.
	Insert(ctx context.Context, db *gorm.DB, commission *Commission) (bool, error)
	FindByDedupKey(ctx context.Context, db *gorm.DB, tenantID, orderID, userID snowflake.ID, roleType RoleType, earnedOn workflow.OrderStatus) (*Commission, error)
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Commission, error)
	Save(ctx context.Context, db *gorm.DB, commission *Commission) error
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListCommissionsFilter) ([]Commission, error)
}
