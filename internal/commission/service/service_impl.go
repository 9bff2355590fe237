package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("commission.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ResolveRule(ctx context.Context, tenantID, userID snowflake.ID, roleType domain.RoleType) (*domain.CommissionRule, error) {
	return s.resolveRule(ctx, s.db, tenantID, userID, roleType)
}

func (s *Service) resolveRule(ctx context.Context, tx *gorm.DB, tenantID, userID snowflake.ID, roleType domain.RoleType) (*domain.CommissionRule, error) {
	rules, err := s.repo.FindActiveRules(ctx, tx, tenantID, userID, roleType)
	if err != nil {
		return nil, err
	}
	switch len(rules) {
	case 0:
		return nil, nil
	case 1:
		return &rules[0], nil
	default:
		// The unique index should make this impossible; pick the first
		// deterministically rather than crash.
		s.log.Warn("multiple active commission rules for one scope",
			zap.String("tenant_id", tenantID.String()),
			zap.String("user_id", userID.String()),
			zap.String("role_type", string(roleType)),
			zap.Int("count", len(rules)),
		)
		return &rules[0], nil
	}
}

func (s *Service) CalculateBase(rule *domain.CommissionRule, price *int64) (int64, error) {
	if rule == nil {
		return 0, domain.ErrNoActiveRule
	}

	switch rule.Type {
	case domain.RuleTypeFixed:
		return rule.FixedAmount, nil
	case domain.RuleTypePercent:
		if price == nil || *price <= 0 {
			return 0, domain.ErrUnresolvableBase
		}
		return percentOf(*price, rule.PercentRate), nil
	case domain.RuleTypeHybrid:
		if price == nil || *price <= 0 {
			return 0, domain.ErrUnresolvableBase
		}
		return rule.FixedAmount + percentOf(*price, rule.PercentRate), nil
	default:
		return 0, domain.ErrInvalidRule
	}
}

func percentOf(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}

func (s *Service) CalculateAndCreate(ctx context.Context, tx *gorm.DB, input domain.EarnInput) (*domain.Commission, error) {
	if tx == nil {
		tx = s.db
	}

	// Dedup before anything else: a retry must get the original row back.
	existing, err := s.repo.FindByDedupKey(ctx, tx, input.TenantID, input.OrderID, input.UserID, input.RoleType, input.EarnedOnStatus)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	rule, err := s.resolveRule(ctx, tx, input.TenantID, input.UserID, input.RoleType)
	if err != nil {
		return nil, err
	}

	var (
		base     int64
		snapshot *domain.RuleSnapshot
		currency string
	)

	if rule == nil {
		s.log.Info("no active commission rule",
			zap.String("tenant_id", input.TenantID.String()),
			zap.String("user_id", input.UserID.String()),
			zap.String("role_type", string(input.RoleType)),
		)
		if !tipOnlyEligible(input) {
			return nil, nil
		}
		currency = input.DefaultCurrency
	} else {
		base, err = s.CalculateBase(rule, input.OrderPrice)
		if err != nil {
			if !errors.Is(err, domain.ErrUnresolvableBase) {
				return nil, err
			}
			s.log.Info("commission base unresolvable",
				zap.String("tenant_id", input.TenantID.String()),
				zap.String("order_id", input.OrderID.String()),
				zap.String("rule_type", string(rule.Type)),
			)
			if !tipOnlyEligible(input) {
				return nil, nil
			}
			base = 0
			// A tip-only record has no rule to source currency from.
			currency = input.DefaultCurrency
		} else {
			snapshot = rule.Snapshot()
			currency = rule.Currency
		}
	}

	commission := &domain.Commission{
		ID:             s.genID.Generate(),
		TenantID:       input.TenantID,
		OrderID:        input.OrderID,
		UserID:         input.UserID,
		RoleType:       input.RoleType,
		EarnedOnStatus: input.EarnedOnStatus,
		BaseAmount:     base,
		ExtraAmount:    input.ExtraAmount,
		TotalAmount:    base + input.ExtraAmount,
		Currency:       currency,
		EarnedAt:       s.clock.Now(),
		RuleSnapshot:   snapshot,
	}

	inserted, err := s.repo.Insert(ctx, tx, commission)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost a race with a concurrent earn: the existing row wins.
		return s.repo.FindByDedupKey(ctx, tx, input.TenantID, input.OrderID, input.UserID, input.RoleType, input.EarnedOnStatus)
	}
	return commission, nil
}

// tipOnlyEligible: only a designer with a positive manual extra may earn
// without a calculable base.
func tipOnlyEligible(input domain.EarnInput) bool {
	return input.RoleType == domain.RoleTypeDesigner && input.ExtraAmount > 0
}

func (s *Service) ProcessOrderCommissions(ctx context.Context, tx *gorm.DB, triggers domain.EarnTriggers, facts domain.OrderFacts, newStatus workflow.OrderStatus, designerTip int64) error {
	if tx == nil {
		tx = s.db
	}

	if newStatus == triggers.SalesEarnedOn && facts.SalesID != nil {
		_, err := s.CalculateAndCreate(ctx, tx, domain.EarnInput{
			TenantID:        facts.TenantID,
			OrderID:         facts.OrderID,
			UserID:          *facts.SalesID,
			RoleType:        domain.RoleTypeSales,
			EarnedOnStatus:  newStatus,
			OrderPrice:      facts.Price,
			DefaultCurrency: triggers.DefaultCurrency,
		})
		if err != nil {
			return err
		}
	}

	if newStatus == triggers.DesignerEarnedOn && facts.DesignerID != nil {
		_, err := s.CalculateAndCreate(ctx, tx, domain.EarnInput{
			TenantID:        facts.TenantID,
			OrderID:         facts.OrderID,
			UserID:          *facts.DesignerID,
			RoleType:        domain.RoleTypeDesigner,
			EarnedOnStatus:  newStatus,
			OrderPrice:      facts.Price,
			ExtraAmount:     designerTip,
			DefaultCurrency: triggers.DefaultCurrency,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) UpdateExtraAmount(ctx context.Context, tenantID, commissionID snowflake.ID, newExtra int64, notes string) (domain.Commission, error) {
	var updated domain.Commission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		commission, err := s.repo.FindByID(ctx, tx, tenantID, commissionID)
		if err != nil {
			return err
		}
		if commission == nil {
			return domain.ErrNotFound
		}

		commission.ExtraAmount = newExtra
		commission.TotalAmount = commission.BaseAmount + newExtra
		if notes = strings.TrimSpace(notes); notes != "" {
			if commission.Notes == "" {
				commission.Notes = notes
			} else {
				commission.Notes = commission.Notes + "\n" + notes
			}
		}
		commission.UpdatedAt = s.clock.Now()

		if err := s.repo.Save(ctx, tx, commission); err != nil {
			return err
		}
		updated = *commission
		return nil
	})
	return updated, err
}

func (s *Service) MarkPaid(ctx context.Context, tenantID, commissionID snowflake.ID) (domain.Commission, error) {
	var updated domain.Commission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		commission, err := s.repo.FindByID(ctx, tx, tenantID, commissionID)
		if err != nil {
			return err
		}
		if commission == nil {
			return domain.ErrNotFound
		}
		if commission.IsPaid {
			updated = *commission
			return nil
		}

		now := s.clock.Now()
		commission.IsPaid = true
		commission.PaidAt = &now
		commission.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, commission); err != nil {
			return err
		}
		updated = *commission
		return nil
	})
	return updated, err
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, filter domain.ListCommissionsFilter) ([]domain.Commission, error) {
	return s.repo.List(ctx, s.db, tenantID, filter)
}

func (s *Service) CreateRule(ctx context.Context, tenantID snowflake.ID, req domain.CreateRuleRequest) (domain.CommissionRule, error) {
	if req.UserID == 0 {
		return domain.CommissionRule{}, domain.ErrInvalidRule
	}
	switch req.RoleType {
	case domain.RoleTypeSales, domain.RoleTypeDesigner:
	default:
		return domain.CommissionRule{}, domain.ErrInvalidRule
	}
	switch req.Type {
	case domain.RuleTypeFixed, domain.RuleTypePercent, domain.RuleTypeHybrid:
	default:
		return domain.CommissionRule{}, domain.ErrInvalidRule
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return domain.CommissionRule{}, domain.ErrInvalidRule
	}

	var created domain.CommissionRule
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindActiveRules(ctx, tx, tenantID, req.UserID, req.RoleType)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return domain.ErrRuleExists
		}

		now := s.clock.Now()
		rule := domain.CommissionRule{
			ID:          s.genID.Generate(),
			TenantID:    tenantID,
			UserID:      req.UserID,
			RoleType:    req.RoleType,
			Type:        req.Type,
			FixedAmount: req.FixedAmount,
			PercentRate: req.PercentRate,
			Currency:    currency,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.InsertRule(ctx, tx, &rule); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrRuleExists
			}
			return err
		}
		created = rule
		return nil
	})
	return created, err
}

func (s *Service) ListRules(ctx context.Context, tenantID snowflake.ID) ([]domain.CommissionRule, error) {
	return s.repo.ListRules(ctx, s.db, tenantID)
}

func (s *Service) DeactivateRule(ctx context.Context, tenantID, ruleID snowflake.ID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		rule, err := s.repo.FindRuleByID(ctx, tx, tenantID, ruleID)
		if err != nil {
			return err
		}
		if rule == nil {
			return domain.ErrNotFound
		}
		if !rule.IsActive {
			return nil
		}
		rule.IsActive = false
		rule.UpdatedAt = s.clock.Now()
		return s.repo.SaveRule(ctx, tx, rule)
	})
}
