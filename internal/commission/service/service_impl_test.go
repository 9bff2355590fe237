package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/repository"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

func setupCommissionTest(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&domain.CommissionRule{}, &domain.Commission{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, conn, node, fake
}

func createRule(t *testing.T, svc domain.Service, tenantID, userID snowflake.ID, roleType domain.RoleType, ruleType domain.RuleType, fixed int64, rate float64) domain.CommissionRule {
	t.Helper()
	rule, err := svc.CreateRule(context.Background(), tenantID, domain.CreateRuleRequest{
		UserID:      userID,
		RoleType:    roleType,
		Type:        ruleType,
		FixedAmount: fixed,
		PercentRate: rate,
		Currency:    "USD",
	})
	require.NoError(t, err)
	return rule
}

func price(v int64) *int64 { return &v }

func TestCalculateBase(t *testing.T) {
	svc, _, node, _ := setupCommissionTest(t)
	tenantID := node.Generate()

	fixed := createRule(t, svc, tenantID, node.Generate(), domain.RoleTypeSales, domain.RuleTypeFixed, 2500, 0)
	percent := createRule(t, svc, tenantID, node.Generate(), domain.RoleTypeSales, domain.RuleTypePercent, 0, 10)
	hybrid := createRule(t, svc, tenantID, node.Generate(), domain.RoleTypeDesigner, domain.RuleTypeHybrid, 500, 5)

	base, err := svc.CalculateBase(&fixed, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(2500), base)

	base, err = svc.CalculateBase(&percent, price(20000))
	assert.NoError(t, err)
	assert.Equal(t, int64(2000), base)

	base, err = svc.CalculateBase(&hybrid, price(10000))
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), base)

	_, err = svc.CalculateBase(&percent, nil)
	assert.ErrorIs(t, err, domain.ErrUnresolvableBase)
	_, err = svc.CalculateBase(&percent, price(0))
	assert.ErrorIs(t, err, domain.ErrUnresolvableBase)
	_, err = svc.CalculateBase(&hybrid, nil)
	assert.ErrorIs(t, err, domain.ErrUnresolvableBase)
}

func TestCalculateAndCreate_NeverDoublePays(t *testing.T) {
	svc, conn, node, _ := setupCommissionTest(t)
	ctx := context.Background()

	tenantID := node.Generate()
	userID := node.Generate()
	orderID := node.Generate()

	createRule(t, svc, tenantID, userID, domain.RoleTypeSales, domain.RuleTypeFixed, 2500, 0)

	input := domain.EarnInput{
		TenantID:       tenantID,
		OrderID:        orderID,
		UserID:         userID,
		RoleType:       domain.RoleTypeSales,
		EarnedOnStatus: workflow.OrderStatusDelivered,
		OrderPrice:     price(10000),
	}

	first, err := svc.CalculateAndCreate(ctx, conn, input)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(2500), first.TotalAmount)

	second, err := svc.CalculateAndCreate(ctx, conn, input)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, conn.Model(&domain.Commission{}).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCalculateAndCreate_SnapshotFrozen(t *testing.T) {
	svc, conn, node, _ := setupCommissionTest(t)
	ctx := context.Background()

	tenantID := node.Generate()
	userID := node.Generate()
	orderID := node.Generate()

	rule := createRule(t, svc, tenantID, userID, domain.RoleTypeSales, domain.RuleTypePercent, 0, 10)

	earned, err := svc.CalculateAndCreate(ctx, conn, domain.EarnInput{
		TenantID:       tenantID,
		OrderID:        orderID,
		UserID:         userID,
		RoleType:       domain.RoleTypeSales,
		EarnedOnStatus: workflow.OrderStatusDelivered,
		OrderPrice:     price(20000),
	})
	require.NoError(t, err)
	require.NotNil(t, earned)
	require.NotNil(t, earned.RuleSnapshot)
	assert.Equal(t, domain.RuleTypePercent, earned.RuleSnapshot.Type)
	assert.Equal(t, float64(10), earned.RuleSnapshot.PercentRate)

	// Deactivating the rule must not touch what was already earned.
	require.NoError(t, svc.DeactivateRule(ctx, tenantID, rule.ID))

	var reloaded domain.Commission
	require.NoError(t, conn.First(&reloaded, "id = ?", earned.ID).Error)
	require.NotNil(t, reloaded.RuleSnapshot)
	assert.Equal(t, float64(10), reloaded.RuleSnapshot.PercentRate)
	assert.Equal(t, int64(2000), reloaded.TotalAmount)
}

func TestCalculateAndCreate_NoRuleNoTip(t *testing.T) {
	svc, conn, node, _ := setupCommissionTest(t)

	earned, err := svc.CalculateAndCreate(context.Background(), conn, domain.EarnInput{
		TenantID:       node.Generate(),
		OrderID:        node.Generate(),
		UserID:         node.Generate(),
		RoleType:       domain.RoleTypeSales,
		EarnedOnStatus: workflow.OrderStatusDelivered,
		OrderPrice:     price(10000),
	})
	assert.NoError(t, err)
	assert.Nil(t, earned)
}

func TestCalculateAndCreate_TipOnlyDesigner(t *testing.T) {
	svc, conn, node, _ := setupCommissionTest(t)

	// No rule at all, but the designer got a manual tip.
	earned, err := svc.CalculateAndCreate(context.Background(), conn, domain.EarnInput{
		TenantID:        node.Generate(),
		OrderID:         node.Generate(),
		UserID:          node.Generate(),
		RoleType:        domain.RoleTypeDesigner,
		EarnedOnStatus:  workflow.OrderStatusDelivered,
		ExtraAmount:     1500,
		DefaultCurrency: "USD",
	})
	require.NoError(t, err)
	require.NotNil(t, earned)
	assert.Equal(t, int64(0), earned.BaseAmount)
	assert.Equal(t, int64(1500), earned.TotalAmount)
	assert.Equal(t, "USD", earned.Currency)
	assert.Nil(t, earned.RuleSnapshot)
}

func TestCalculateAndCreate_UnresolvableBaseFallsBackToTip(t *testing.T) {
	svc, conn, node, _ := setupCommissionTest(t)

	tenantID := node.Generate()
	userID := node.Generate()
	createRule(t, svc, tenantID, userID, domain.RoleTypeDesigner, domain.RuleTypePercent, 0, 10)

	// Percent rule but the order has no price: tip still pays out.
	earned, err := svc.CalculateAndCreate(context.Background(), conn, domain.EarnInput{
		TenantID:        tenantID,
		OrderID:         node.Generate(),
		UserID:          userID,
		RoleType:        domain.RoleTypeDesigner,
		EarnedOnStatus:  workflow.OrderStatusDelivered,
		ExtraAmount:     500,
		DefaultCurrency: "EUR",
	})
	require.NoError(t, err)
	require.NotNil(t, earned)
	assert.Equal(t, int64(0), earned.BaseAmount)
	assert.Equal(t, int64(500), earned.TotalAmount)
	assert.Equal(t, "EUR", earned.Currency)

	// Same situation for sales earns nothing.
	none, err := svc.CalculateAndCreate(context.Background(), conn, domain.EarnInput{
		TenantID:        tenantID,
		OrderID:         node.Generate(),
		UserID:          userID,
		RoleType:        domain.RoleTypeSales,
		EarnedOnStatus:  workflow.OrderStatusDelivered,
		DefaultCurrency: "EUR",
	})
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestProcessOrderCommissions(t *testing.T) {
	svc, conn, node, _ := setupCommissionTest(t)
	ctx := context.Background()

	tenantID := node.Generate()
	salesID := node.Generate()
	designerID := node.Generate()
	orderID := node.Generate()

	createRule(t, svc, tenantID, salesID, domain.RoleTypeSales, domain.RuleTypePercent, 0, 10)
	createRule(t, svc, tenantID, designerID, domain.RoleTypeDesigner, domain.RuleTypeFixed, 1000, 0)

	triggers := domain.EarnTriggers{
		SalesEarnedOn:    workflow.OrderStatusDelivered,
		DesignerEarnedOn: workflow.OrderStatusApproved,
		DefaultCurrency:  "USD",
	}
	facts := domain.OrderFacts{
		TenantID:   tenantID,
		OrderID:    orderID,
		DesignerID: &designerID,
		SalesID:    &salesID,
		Price:      price(20000),
	}

	// APPROVED fires only the designer bonus.
	require.NoError(t, svc.ProcessOrderCommissions(ctx, conn, triggers, facts, workflow.OrderStatusApproved, 0))

	rows, err := svc.List(ctx, tenantID, domain.ListCommissionsFilter{OrderID: &orderID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.RoleTypeDesigner, rows[0].RoleType)
	assert.Equal(t, int64(1000), rows[0].TotalAmount)

	// DELIVERED fires the sales commission.
	require.NoError(t, svc.ProcessOrderCommissions(ctx, conn, triggers, facts, workflow.OrderStatusDelivered, 0))

	rows, err = svc.List(ctx, tenantID, domain.ListCommissionsFilter{OrderID: &orderID})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Replaying both transitions pays nothing extra.
	require.NoError(t, svc.ProcessOrderCommissions(ctx, conn, triggers, facts, workflow.OrderStatusApproved, 0))
	require.NoError(t, svc.ProcessOrderCommissions(ctx, conn, triggers, facts, workflow.OrderStatusDelivered, 0))

	rows, err = svc.List(ctx, tenantID, domain.ListCommissionsFilter{OrderID: &orderID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUpdateExtraAmount(t *testing.T) {
	svc, conn, node, _ := setupCommissionTest(t)
	ctx := context.Background()

	tenantID := node.Generate()
	userID := node.Generate()
	createRule(t, svc, tenantID, userID, domain.RoleTypeDesigner, domain.RuleTypeFixed, 1000, 0)

	earned, err := svc.CalculateAndCreate(ctx, conn, domain.EarnInput{
		TenantID:       tenantID,
		OrderID:        node.Generate(),
		UserID:         userID,
		RoleType:       domain.RoleTypeDesigner,
		EarnedOnStatus: workflow.OrderStatusDelivered,
	})
	require.NoError(t, err)
	require.NotNil(t, earned)

	updated, err := svc.UpdateExtraAmount(ctx, tenantID, earned.ID, 750, "rush job bonus")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), updated.BaseAmount)
	assert.Equal(t, int64(750), updated.ExtraAmount)
	assert.Equal(t, int64(1750), updated.TotalAmount)
	assert.Equal(t, "rush job bonus", updated.Notes)

	updated, err = svc.UpdateExtraAmount(ctx, tenantID, earned.ID, 500, "corrected")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), updated.TotalAmount)
	assert.Equal(t, "rush job bonus\ncorrected", updated.Notes)

	_, err = svc.UpdateExtraAmount(ctx, tenantID, node.Generate(), 100, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkPaid_Idempotent(t *testing.T) {
	svc, conn, node, fake := setupCommissionTest(t)
	ctx := context.Background()

	tenantID := node.Generate()
	userID := node.Generate()
	createRule(t, svc, tenantID, userID, domain.RoleTypeSales, domain.RuleTypeFixed, 2000, 0)

	earned, err := svc.CalculateAndCreate(ctx, conn, domain.EarnInput{
		TenantID:       tenantID,
		OrderID:        node.Generate(),
		UserID:         userID,
		RoleType:       domain.RoleTypeSales,
		EarnedOnStatus: workflow.OrderStatusDelivered,
	})
	require.NoError(t, err)
	require.NotNil(t, earned)

	paid, err := svc.MarkPaid(ctx, tenantID, earned.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	fake.Advance(time.Hour)
	again, err := svc.MarkPaid(ctx, tenantID, earned.ID)
	require.NoError(t, err)
	assert.True(t, again.IsPaid)
	require.NotNil(t, again.PaidAt)
	assert.Equal(t, firstPaidAt, *again.PaidAt)
}

func TestCreateRule_SingleActivePerScope(t *testing.T) {
	svc, _, node, _ := setupCommissionTest(t)
	ctx := context.Background()

	tenantID := node.Generate()
	userID := node.Generate()

	first := createRule(t, svc, tenantID, userID, domain.RoleTypeSales, domain.RuleTypeFixed, 1000, 0)

	_, err := svc.CreateRule(ctx, tenantID, domain.CreateRuleRequest{
		UserID:      userID,
		RoleType:    domain.RoleTypeSales,
		Type:        domain.RuleTypePercent,
		PercentRate: 5,
		Currency:    "USD",
	})
	assert.ErrorIs(t, err, domain.ErrRuleExists)

	// Same user may hold a rule in the other capacity.
	_, err = svc.CreateRule(ctx, tenantID, domain.CreateRuleRequest{
		UserID:      userID,
		RoleType:    domain.RoleTypeDesigner,
		Type:        domain.RuleTypeFixed,
		FixedAmount: 500,
		Currency:    "USD",
	})
	assert.NoError(t, err)

	// Deactivating frees the scope for a replacement.
	require.NoError(t, svc.DeactivateRule(ctx, tenantID, first.ID))
	replacement, err := svc.CreateRule(ctx, tenantID, domain.CreateRuleRequest{
		UserID:      userID,
		RoleType:    domain.RoleTypeSales,
		Type:        domain.RuleTypePercent,
		PercentRate: 7.5,
		Currency:    "USD",
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveRule(ctx, tenantID, userID, domain.RoleTypeSales)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, replacement.ID, resolved.ID)
}

func TestCreateRule_Validation(t *testing.T) {
	svc, _, node, _ := setupCommissionTest(t)
	ctx := context.Background()
	tenantID := node.Generate()

	cases := []domain.CreateRuleRequest{
		{UserID: 0, RoleType: domain.RoleTypeSales, Type: domain.RuleTypeFixed, Currency: "USD"},
		{UserID: node.Generate(), RoleType: "manager", Type: domain.RuleTypeFixed, Currency: "USD"},
		{UserID: node.Generate(), RoleType: domain.RoleTypeSales, Type: "tiered", Currency: "USD"},
		{UserID: node.Generate(), RoleType: domain.RoleTypeSales, Type: domain.RuleTypeFixed, Currency: "DOLLARS"},
	}
	for _, req := range cases {
		_, err := svc.CreateRule(ctx, tenantID, req)
		assert.ErrorIs(t, err, domain.ErrInvalidRule)
	}
}
