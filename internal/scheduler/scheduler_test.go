package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/config"
	invoicedomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
)

// stubInvoices counts sweep calls; the rest of the interface is unused here.
type stubInvoices struct {
	invoicedomain.Service

	sweeps  int
	lastNow time.Time
	err     error
}

func (s *stubInvoices) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	s.sweeps++
	s.lastNow = now
	return 3, s.err
}

type stubDispatcher struct {
	dispatches int
	batchSize  int
	err        error
}

func (s *stubDispatcher) Queue(ctx context.Context, tx *gorm.DB, settings tenantdomain.Settings, event string, data map[string]any) error {
	return nil
}

func (s *stubDispatcher) DispatchPending(ctx context.Context, batchSize int) (int, error) {
	s.dispatches++
	s.batchSize = batchSize
	return 1, s.err
}

func newTestScheduler(t *testing.T, cfg Config, invoices *stubInvoices, hooks *stubDispatcher) (*Scheduler, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC))
	sched, err := New(Params{
		Log:        zap.NewNop(),
		Clock:      fake,
		InvoiceSvc: invoices,
		Hooks:      hooks,
		Config:     cfg,
	})
	require.NoError(t, err)
	return sched, fake
}

func TestRunOnce_RunsAllJobs(t *testing.T) {
	invoices := &stubInvoices{}
	hooks := &stubDispatcher{}
	sched, fake := newTestScheduler(t, Config{WebhookBatchSize: 25}, invoices, hooks)

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, 1, invoices.sweeps)
	assert.Equal(t, fake.Now(), invoices.lastNow)
	assert.Equal(t, 1, hooks.dispatches)
	assert.Equal(t, 25, hooks.batchSize)
}

func TestRunOnce_EnabledJobsFilter(t *testing.T) {
	invoices := &stubInvoices{}
	hooks := &stubDispatcher{}
	sched, _ := newTestScheduler(t, Config{EnabledJobs: []string{"Dispatch_Webhooks"}}, invoices, hooks)

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, 0, invoices.sweeps)
	assert.Equal(t, 1, hooks.dispatches)
}

func TestRunOnce_JoinsJobErrors(t *testing.T) {
	sweepErr := errors.New("database gone")
	invoices := &stubInvoices{err: sweepErr}
	hooks := &stubDispatcher{}
	sched, _ := newTestScheduler(t, Config{}, invoices, hooks)

	err := sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sweepErr)
	// The failing sweep does not stop webhook dispatch.
	assert.Equal(t, 1, hooks.dispatches)
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(config.Config{})
	assert.Equal(t, DefaultConfig().RunInterval, cfg.RunInterval)
	assert.Equal(t, DefaultConfig().WebhookBatchSize, cfg.WebhookBatchSize)

	cfg = NewConfig(config.Config{SchedulerInterval: 5 * time.Second, WebhookBatchSize: 10})
	assert.Equal(t, 5*time.Second, cfg.RunInterval)
	assert.Equal(t, 10, cfg.WebhookBatchSize)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNilLocker_SingleInstanceMode(t *testing.T) {
	var locker *Locker
	token, acquired, err := locker.TryLock(context.Background(), "scheduler:test", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.Empty(t, token)
	assert.NoError(t, locker.Release(context.Background(), "scheduler:test", token))
}
