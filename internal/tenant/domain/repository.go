package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tenant, error)
	FindSettings(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*TenantSettings, error)
	UpsertSettings(ctx context.Context, db *gorm.DB, settings *TenantSettings) error
}
