package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
)

func setupRepoTest(t *testing.T) (domain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Commission{}))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)
	return Provide(), conn, node
}

func TestInsert_ConflictIsSilent(t *testing.T) {
	repo, conn, node := setupRepoTest(t)
	ctx := context.Background()

	tenantID := node.Generate()
	orderID := node.Generate()
	userID := node.Generate()
	earnedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mk := func() *domain.Commission {
		return &domain.Commission{
			ID:             node.Generate(),
			TenantID:       tenantID,
			OrderID:        orderID,
			UserID:         userID,
			RoleType:       domain.RoleTypeSales,
			EarnedOnStatus: workflow.OrderStatusDelivered,
			BaseAmount:     2000,
			TotalAmount:    2000,
			Currency:       "USD",
			EarnedAt:       earnedAt,
		}
	}

	first := mk()

	// Both writes happen inside one transaction, as they do when two earn
	// triggers race: the conflict must not poison the transaction.
	err := conn.Transaction(func(tx *gorm.DB) error {
		inserted, err := repo.Insert(ctx, tx, first)
		require.NoError(t, err)
		require.True(t, inserted)

		inserted, err = repo.Insert(ctx, tx, mk())
		require.NoError(t, err)
		require.False(t, inserted)

		// The transaction is still usable after the conflict.
		existing, err := repo.FindByDedupKey(ctx, tx, tenantID, orderID, userID,
			domain.RoleTypeSales, workflow.OrderStatusDelivered)
		require.NoError(t, err)
		require.NotNil(t, existing)
		assert.Equal(t, first.ID, existing.ID)
		return nil
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&domain.Commission{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A different earn status is a different dedup key.
	other := mk()
	other.EarnedOnStatus = workflow.OrderStatusApproved
	inserted, err := repo.Insert(ctx, conn, other)
	require.NoError(t, err)
	assert.True(t, inserted)
}
