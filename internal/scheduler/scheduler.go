// Package scheduler runs periodic maintenance over the billing tables:
// clearing expired payment tokens and pruning the audit trail.
package scheduler

import (
	"context"
	"time"

	auditdomain "github.com/wavelinklabs/wavelink/internal/audit/domain"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"github.com/wavelinklabs/wavelink/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(Start),
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Clock clock.Clock
	Audit auditdomain.Repository
}

type Scheduler struct {
	cfg   config.Config
	log   *zap.Logger
	db    *gorm.DB
	clock clock.Clock
	audit auditdomain.Repository
}

func New(p Params) *Scheduler {
	return &Scheduler{
		cfg:   p.Cfg,
		log:   p.Log.Named("scheduler"),
		db:    p.DB,
		clock: p.Clock,
		audit: p.Audit,
	}
}

// Sweep runs all maintenance jobs once. Jobs are independent; a failure in
// one does not stop the others.
func (s *Scheduler) Sweep(ctx context.Context) {
	if n, err := s.ClearExpiredTokens(ctx); err != nil {
		s.log.Warn("expired token sweep", zap.Error(err))
	} else if n > 0 {
		s.log.Info("expired tokens cleared", zap.Int64("count", n))
	}

	if n, err := s.PruneAuditLogs(ctx); err != nil {
		s.log.Warn("audit retention sweep", zap.Error(err))
	} else if n > 0 {
		s.log.Info("audit entries pruned", zap.Int64("count", n))
	}
}

// ClearExpiredTokens drops payment tokens past their expiry so the unique
// token column does not accumulate dead links.
func (s *Scheduler) ClearExpiredTokens(ctx context.Context) (int64, error) {
	now := s.clock.Now(ctx)
	res := s.db.WithContext(ctx).Model(&billingdomain.Bill{}).
		Where("payment_token IS NOT NULL AND payment_token_expires_at IS NOT NULL AND payment_token_expires_at < ?", now).
		Updates(map[string]any{
			"payment_token":            nil,
			"payment_token_expires_at": nil,
		})
	return res.RowsAffected, res.Error
}

// PruneAuditLogs enforces the configured audit retention window.
func (s *Scheduler) PruneAuditLogs(ctx context.Context) (int64, error) {
	days := s.cfg.AuditRetentionDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := s.clock.Now(ctx).AddDate(0, 0, -days)
	return s.audit.DeleteBefore(ctx, cutoff)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func Start(lc fx.Lifecycle, s *Scheduler) {
	if s.cfg.SweepInterval <= 0 {
		s.log.Info("background sweeper disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
