package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/filestorage"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/migration"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/notification"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/scheduler"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/server"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/log"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional domains
		tenant.Module,
		order.Module,
		commission.Module,
		invoice.Module,
		webhook.Module,
		notification.Module,
		filestorage.Module,

		migration.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
