package repository

import (
	"context"
	"time"

	"github.com/wavelinklabs/wavelink/internal/audit/domain"
	"gorm.io/gorm"
)

type auditRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(ctx context.Context, entry *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, action string, limit int) ([]domain.AuditLog, error) {
	q := r.db.WithContext(ctx).Order("id DESC")
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var logs []domain.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditRepo) ListRange(ctx context.Context, start, end time.Time, actions []string) ([]domain.AuditLog, error) {
	q := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC")
	if len(actions) > 0 {
		q = q.Where("action IN ?", actions)
	}
	var logs []domain.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.AuditLog{}, "created_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
