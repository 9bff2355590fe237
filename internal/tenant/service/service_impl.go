package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Defaults *config.DefaultsHolder
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	defaults *config.DefaultsHolder
	repo     domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("tenant.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		defaults: p.Defaults,
		repo:     p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTenantRequest) (domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Tenant{}, domain.ErrInvalidName
	}
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		return domain.Tenant{}, domain.ErrInvalidSlug
	}

	now := s.clock.Now()
	tenant := domain.Tenant{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &tenant); err != nil {
		return domain.Tenant{}, err
	}
	return tenant, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Tenant{}, err
	}
	if tenant == nil {
		return domain.Tenant{}, domain.ErrNotFound
	}
	return *tenant, nil
}

func (s *Service) Settings(ctx context.Context, tenantID snowflake.ID) (domain.Settings, error) {
	row, err := s.repo.FindSettings(ctx, s.db, tenantID)
	if err != nil {
		return domain.Settings{}, err
	}
	return s.resolve(tenantID, row), nil
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID snowflake.ID, req domain.UpdateSettingsRequest) (domain.Settings, error) {
	row, err := s.repo.FindSettings(ctx, s.db, tenantID)
	if err != nil {
		return domain.Settings{}, err
	}
	now := s.clock.Now()
	if row == nil {
		row = &domain.TenantSettings{TenantID: tenantID, CreatedAt: now}
	}
	row.UpdatedAt = now

	if req.AutoAssignOnDesigner != nil {
		row.AutoAssignOnDesigner = *req.AutoAssignOnDesigner
	}
	if req.NotifyOnAssignment != nil {
		row.NotifyOnAssignment = *req.NotifyOnAssignment
	}
	if req.SalesCommissionEarnedOn != nil {
		if _, ok := workflow.ParseOrderStatus(*req.SalesCommissionEarnedOn); !ok {
			return domain.Settings{}, domain.ErrInvalidValue
		}
		row.SalesCommissionEarnedOn = *req.SalesCommissionEarnedOn
	}
	if req.DesignerBonusEarnedOn != nil {
		if _, ok := workflow.ParseOrderStatus(*req.DesignerBonusEarnedOn); !ok {
			return domain.Settings{}, domain.ErrInvalidValue
		}
		row.DesignerBonusEarnedOn = *req.DesignerBonusEarnedOn
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return domain.Settings{}, domain.ErrInvalidValue
		}
		row.Currency = currency
	}
	if req.WebhookURL != nil {
		row.WebhookURL = strings.TrimSpace(*req.WebhookURL)
	}
	if req.WebhookEvents != nil {
		encoded, err := json.Marshal(req.WebhookEvents)
		if err != nil {
			return domain.Settings{}, err
		}
		row.WebhookEvents = datatypes.JSON(encoded)
	}

	if err := s.repo.UpsertSettings(ctx, s.db, row); err != nil {
		return domain.Settings{}, err
	}
	return s.resolve(tenantID, row), nil
}

// resolve layers the stored row over platform defaults.
func (s *Service) resolve(tenantID snowflake.ID, row *domain.TenantSettings) domain.Settings {
	defaults := s.defaults.Current()

	resolved := domain.Settings{
		TenantID:                tenantID,
		SalesCommissionEarnedOn: workflow.OrderStatus(defaults.SalesCommissionEarnedOn),
		DesignerBonusEarnedOn:   workflow.OrderStatus(defaults.DesignerBonusEarnedOn),
		Currency:                defaults.Currency,
	}
	if row == nil {
		return resolved
	}

	resolved.AutoAssignOnDesigner = row.AutoAssignOnDesigner
	resolved.NotifyOnAssignment = row.NotifyOnAssignment
	if row.SalesCommissionEarnedOn != "" {
		resolved.SalesCommissionEarnedOn = workflow.OrderStatus(row.SalesCommissionEarnedOn)
	}
	if row.DesignerBonusEarnedOn != "" {
		resolved.DesignerBonusEarnedOn = workflow.OrderStatus(row.DesignerBonusEarnedOn)
	}
	if row.Currency != "" {
		resolved.Currency = row.Currency
	}
	resolved.WebhookURL = row.WebhookURL
	if len(row.WebhookEvents) > 0 {
		var events []string
		if err := json.Unmarshal(row.WebhookEvents, &events); err != nil {
			s.log.Warn("malformed webhook_events, ignoring",
				zap.String("tenant_id", tenantID.String()), zap.Error(err))
		} else {
			resolved.WebhookEvents = events
		}
	}
	return resolved
}
