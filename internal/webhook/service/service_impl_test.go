package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
)

type recordingDeliverer struct {
	delivered []domain.Payload
	failFor   map[string]error
}

func (d *recordingDeliverer) Deliver(ctx context.Context, targetURL string, payload domain.Payload) error {
	if err, ok := d.failFor[payload.Event]; ok {
		return err
	}
	d.delivered = append(d.delivered, payload)
	return nil
}

func setupWebhookTest(t *testing.T, deliverer domain.Deliverer) (domain.Dispatcher, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.WebhookEvent{}))

	// Dispatch reads the outbox globally; start each test with it empty.
	require.NoError(t, conn.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.WebhookEvent{}).Error)

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Deliverer: deliverer,
	})
	return svc, conn, node, fake
}

func settingsWith(tenantID snowflake.ID, url string, events ...string) tenantdomain.Settings {
	return tenantdomain.Settings{
		TenantID:      tenantID,
		WebhookURL:    url,
		WebhookEvents: events,
	}
}

func TestQueue_GatedOff(t *testing.T) {
	svc, conn, node, _ := setupWebhookTest(t, &recordingDeliverer{})
	tenantID := node.Generate()

	// No target URL configured.
	err := svc.Queue(context.Background(), nil, settingsWith(tenantID, "", "order.delivered"),
		"order.delivered", map[string]any{"order_id": "1"})
	require.NoError(t, err)

	// URL configured but event not on the allow-list.
	err = svc.Queue(context.Background(), nil, settingsWith(tenantID, "https://hooks.example.com", "invoice.paid"),
		"order.delivered", map[string]any{"order_id": "1"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&domain.WebhookEvent{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestQueue_WritesOutboxRow(t *testing.T) {
	svc, conn, node, fake := setupWebhookTest(t, &recordingDeliverer{})
	tenantID := node.Generate()

	settings := settingsWith(tenantID, "https://hooks.example.com/in", "order.delivered")
	err := svc.Queue(context.Background(), nil, settings, "order.delivered", map[string]any{
		"order_id":     "42",
		"order_number": "ORD-000042",
	})
	require.NoError(t, err)

	var row domain.WebhookEvent
	require.NoError(t, conn.First(&row, "tenant_id = ?", tenantID).Error)
	assert.Equal(t, "order.delivered", row.Event)
	assert.Equal(t, "https://hooks.example.com/in", row.TargetURL)
	assert.False(t, row.Published)
	assert.Nil(t, row.PublishedAt)

	var payload domain.Payload
	require.NoError(t, json.Unmarshal(row.Payload, &payload))
	assert.Equal(t, "order.delivered", payload.Event)
	assert.Equal(t, tenantID.String(), payload.TenantID)
	assert.Equal(t, fake.Now(), payload.Timestamp.UTC())
	assert.Equal(t, "ORD-000042", payload.Data["order_number"])
}

func TestQueue_UsesCallerTransaction(t *testing.T) {
	svc, conn, node, _ := setupWebhookTest(t, &recordingDeliverer{})
	tenantID := node.Generate()
	settings := settingsWith(tenantID, "https://hooks.example.com", "order.delivered")

	rollback := errors.New("rollback")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Queue(context.Background(), tx, settings, "order.delivered", nil); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	// The outbox row dies with the transaction that produced it.
	var count int64
	require.NoError(t, conn.Model(&domain.WebhookEvent{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDispatchPending(t *testing.T) {
	deliverer := &recordingDeliverer{
		failFor: map[string]error{"invoice.overdue": errors.New("endpoint down")},
	}
	svc, conn, node, fake := setupWebhookTest(t, deliverer)
	tenantID := node.Generate()

	settings := settingsWith(tenantID, "https://hooks.example.com",
		"order.delivered", "invoice.overdue", "invoice.paid")
	ctx := context.Background()
	require.NoError(t, svc.Queue(ctx, nil, settings, "order.delivered", map[string]any{"order_id": "1"}))
	fake.Advance(time.Second)
	require.NoError(t, svc.Queue(ctx, nil, settings, "invoice.overdue", map[string]any{"invoice_id": "2"}))
	fake.Advance(time.Second)
	require.NoError(t, svc.Queue(ctx, nil, settings, "invoice.paid", map[string]any{"invoice_id": "2"}))

	dispatched, err := svc.DispatchPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched)
	require.Len(t, deliverer.delivered, 2)
	assert.Equal(t, "order.delivered", deliverer.delivered[0].Event)
	assert.Equal(t, "invoice.paid", deliverer.delivered[1].Event)

	// The failed row stays unpublished for the next run.
	var pending []domain.WebhookEvent
	require.NoError(t, conn.
		Where("tenant_id = ? AND published = ?", tenantID, false).
		Find(&pending).Error)
	require.Len(t, pending, 1)
	assert.Equal(t, "invoice.overdue", pending[0].Event)

	var published []domain.WebhookEvent
	require.NoError(t, conn.
		Where("tenant_id = ? AND published = ?", tenantID, true).
		Find(&published).Error)
	require.Len(t, published, 2)
	for _, row := range published {
		assert.NotNil(t, row.PublishedAt)
	}

	// Once the endpoint recovers the row goes out.
	deliverer.failFor = nil
	dispatched, err = svc.DispatchPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatched)
}

func TestDispatchPending_RespectsBatchSize(t *testing.T) {
	deliverer := &recordingDeliverer{}
	svc, _, node, fake := setupWebhookTest(t, deliverer)
	tenantID := node.Generate()
	settings := settingsWith(tenantID, "https://hooks.example.com", "order.closed")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Queue(ctx, nil, settings, "order.closed", nil))
		fake.Advance(time.Second)
	}

	dispatched, err := svc.DispatchPending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched)

	dispatched, err = svc.DispatchPending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, dispatched)
}
