// Package server exposes the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	commissiondomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	invoicedomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	orderdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	genID         *snowflake.Node
	tenantSvc     tenantdomain.Service
	orderSvc      orderdomain.Service
	commissionSvc commissiondomain.Service
	invoiceSvc    invoicedomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	GenID         *snowflake.Node
	TenantSvc     tenantdomain.Service
	OrderSvc      orderdomain.Service
	CommissionSvc commissiondomain.Service
	InvoiceSvc    invoicedomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http"),
		genID:         p.GenID,
		tenantSvc:     p.TenantSvc,
		orderSvc:      p.OrderSvc,
		commissionSvc: p.CommissionSvc,
		invoiceSvc:    p.InvoiceSvc,
	}
}

func registerRoutes(s *Server) {
	s.engine.POST("/v1/tenants", s.CreateTenant)

	api := s.engine.Group("/v1", s.TenantContext())
	{
		api.GET("/settings", s.GetSettings)
		api.PATCH("/settings", s.UpdateSettings)

		api.POST("/orders", s.CreateOrder)
		api.GET("/orders", s.ListOrders)
		api.GET("/orders/:id", s.GetOrder)
		api.DELETE("/orders/:id", s.DeleteOrder)
		api.POST("/orders/:id/transition", s.TransitionOrder)
		api.GET("/orders/:id/transitions", s.AllowedOrderTransitions)
		api.POST("/orders/:id/assign", s.AssignOrder)
		api.DELETE("/orders/:id/assign", s.EndOrderAssignment)
		api.GET("/orders/:id/assignments", s.ListOrderAssignments)
		api.GET("/orders/:id/history", s.ListOrderHistory)
		api.POST("/orders/:id/revisions", s.RequestRevision)
		api.POST("/orders/:id/revision-orders", s.CreateRevisionOrder)
		api.POST("/revisions/:id/resolve", s.ResolveRevision)
		api.POST("/orders/:id/comments", s.AddOrderComment)
		api.GET("/orders/:id/comments", s.ListOrderComments)

		api.GET("/commissions", s.ListCommissions)
		api.PATCH("/commissions/:id/extra", s.UpdateCommissionExtra)
		api.POST("/commissions/:id/pay", s.PayCommission)
		api.POST("/commission-rules", s.CreateCommissionRule)
		api.GET("/commission-rules", s.ListCommissionRules)
		api.DELETE("/commission-rules/:id", s.DeactivateCommissionRule)

		api.POST("/invoices", s.CreateInvoice)
		api.GET("/invoices", s.ListInvoices)
		api.GET("/invoices/:id", s.GetInvoice)
		api.POST("/invoices/:id/transition", s.TransitionInvoice)
		api.POST("/invoices/:id/payments", s.RecordInvoicePayment)
		api.GET("/invoices/:id/payments", s.ListInvoicePayments)
		api.GET("/invoices/:id/items", s.ListInvoiceItems)
	}
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
