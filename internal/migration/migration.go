// Package migration creates the schema on startup so the service is usable
// out of the box for local and self-hosted environments.
package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	commissiondomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	invoicedomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	orderdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
	webhookdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(run),
)

// run honors AUTO_MIGRATE so deployments that manage schema out of band can
// turn the startup migration off.
func run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if !cfg.AutoMigrate {
		log.Named("migrations").Info("auto-migrate disabled, skipping")
		return nil
	}
	return Run(conn)
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&tenantdomain.Tenant{},
		&tenantdomain.TenantSettings{},
		&orderdomain.Order{},
		&orderdomain.OrderAssignment{},
		&orderdomain.OrderStatusHistory{},
		&orderdomain.OrderRevision{},
		&orderdomain.OrderComment{},
		&commissiondomain.CommissionRule{},
		&commissiondomain.Commission{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.InvoicePayment{},
		&webhookdomain.WebhookEvent{},
	}
}

func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
