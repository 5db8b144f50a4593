package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wavelinklabs/wavelink/internal/billing/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type billRepo struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) domain.BillRepository {
	return &billRepo{db: db}
}

func (r *billRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	if db == nil {
		db = r.db
	}
	var bill domain.Bill
	if err := db.WithContext(ctx).First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *billRepo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var bill domain.Bill
	if err := q.First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *billRepo) FindPayableByToken(ctx context.Context, db *gorm.DB, token string, now time.Time) (*domain.Bill, error) {
	if db == nil {
		db = r.db
	}
	var bill domain.Bill
	if err := db.WithContext(ctx).
		Where("payment_token = ? AND status <> ?", token, domain.BillStatusPaid).
		Where("payment_token_expires_at IS NULL OR payment_token_expires_at > ?", now).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *billRepo) Update(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Save(bill).Error
}

func (r *billRepo) SetPaymentToken(ctx context.Context, db *gorm.DB, id snowflake.ID, token string, expiresAt *time.Time) error {
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).Model(&domain.Bill{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_token":            token,
			"payment_token_expires_at": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrBillNotFound
	}
	return nil
}
