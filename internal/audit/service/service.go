package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/wavelinklabs/wavelink/internal/audit/domain"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		log:   p.Log.Named("audit"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Record writes an audit entry. Failures are logged and swallowed: the audit
// trail must never fail the mutation it documents.
func (s *Service) Record(ctx context.Context, action, entity, entityID string, detail any) {
	var encoded string
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			s.log.Warn("audit detail encode", zap.String("action", action), zap.Error(err))
		} else {
			encoded = string(raw)
		}
	}

	entry := &domain.AuditLog{
		ID:        s.genID.Generate(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    encoded,
		CreatedAt: s.clock.Now(ctx),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Warn("audit insert", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, action string, limit int) ([]domain.AuditLog, error) {
	return s.repo.List(ctx, action, limit)
}
