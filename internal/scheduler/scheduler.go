// Package scheduler runs the periodic jobs: the overdue invoice sweep and
// webhook outbox dispatch. Each job takes a distributed lock so overlapping
// instances do not double-run it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	invoicedomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	webhookdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	InvoiceSvc invoicedomain.Service
	Hooks      webhookdomain.Dispatcher
	Locker     *Locker `optional:"true"`
	Config     Config  `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	hooks      webhookdomain.Dispatcher
	locker     *Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.InvoiceSvc == nil || p.Hooks == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		hooks:      p.Hooks,
		locker:     p.Locker,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	token, acquired, err := s.locker.TryLock(ctx, "scheduler:"+name, s.cfg.LockTTL)
	if err != nil {
		s.log.Warn("job lock unavailable", zap.String("job", name), zap.Error(err))
		return nil
	}
	if !acquired {
		return nil
	}
	defer func() {
		if err := s.locker.Release(ctx, "scheduler:"+name, token); err != nil {
			s.log.Warn("job lock release failed", zap.String("job", name), zap.Error(err))
		}
	}()

	start := s.clock.Now()
	err = fn(ctx)
	elapsed := time.Since(start)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	s.log.Debug("job complete", zap.String("job", name), zap.Duration("elapsed", elapsed))
	return nil
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"overdue_invoices", s.OverdueInvoicesJob},
		{"dispatch_webhooks", s.DispatchWebhooksJob},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) OverdueInvoicesJob(ctx context.Context) error {
	flipped, err := s.invoiceSvc.MarkOverdue(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	if flipped > 0 {
		s.log.Info("invoices marked overdue", zap.Int("count", flipped))
	}
	return nil
}

func (s *Scheduler) DispatchWebhooksJob(ctx context.Context) error {
	dispatched, err := s.hooks.DispatchPending(ctx, s.cfg.WebhookBatchSize)
	if err != nil {
		return err
	}
	if dispatched > 0 {
		s.log.Info("webhooks dispatched", zap.Int("count", dispatched))
	}
	return nil
}
