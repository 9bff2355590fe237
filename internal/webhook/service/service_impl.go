package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/clock"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/webhook/domain"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Deliverer domain.Deliverer
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	deliverer domain.Deliverer
}

func New(p Params) domain.Dispatcher {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("webhook.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		deliverer: p.Deliverer,
	}
}

func (s *Service) Queue(ctx context.Context, tx *gorm.DB, settings tenantdomain.Settings, event string, data map[string]any) error {
	if !settings.WebhookEnabled(event) {
		return nil
	}
	if tx == nil {
		tx = s.db
	}

	payload := domain.Payload{
		Event:     event,
		TenantID:  settings.TenantID.String(),
		Timestamp: s.clock.Now(),
		Data:      data,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	row := domain.WebhookEvent{
		ID:        s.genID.Generate(),
		TenantID:  settings.TenantID,
		Event:     event,
		TargetURL: settings.WebhookURL,
		Payload:   datatypes.JSON(encoded),
		CreatedAt: s.clock.Now(),
	}
	return tx.WithContext(ctx).Create(&row).Error
}

func (s *Service) DispatchPending(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	var pending []domain.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at asc, id asc").
		Limit(batchSize).
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for i := range pending {
		row := &pending[i]

		var payload domain.Payload
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			s.log.Error("corrupt webhook payload, skipping",
				zap.String("event_id", row.ID.String()), zap.Error(err))
			continue
		}

		if err := s.deliverer.Deliver(ctx, row.TargetURL, payload); err != nil {
			s.log.Warn("webhook delivery failed, will retry",
				zap.String("event_id", row.ID.String()),
				zap.String("event", row.Event),
				zap.Error(err))
			continue
		}

		now := s.clock.Now()
		err := s.db.WithContext(ctx).
			Model(&domain.WebhookEvent{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"published": true, "published_at": now}).Error
		if err != nil {
			return dispatched, err
		}
		dispatched++
	}

	return dispatched, nil
}
