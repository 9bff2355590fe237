// Command sweeper runs one scheduler pass and exits. It is meant for cron
// style deployments where the long-running scheduler is not wanted.
package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/filestorage"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/migration"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/notification"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/scheduler"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/log"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		tenant.Module,
		order.Module,
		commission.Module,
		invoice.Module,
		webhook.Module,
		notification.Module,
		filestorage.Module,

		migration.Module,

		fx.Provide(scheduler.NewConfig),
		fx.Provide(scheduler.NewLocker),
		fx.Provide(scheduler.New),
		fx.Invoke(runOnce),
	)
	app.Run()
}

func runOnce(lc fx.Lifecycle, shutdowner fx.Shutdowner, logger *zap.Logger, sched *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := sched.RunOnce(context.Background()); err != nil {
					logger.Error("sweep failed", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
