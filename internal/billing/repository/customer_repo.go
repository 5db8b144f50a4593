package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/wavelinklabs/wavelink/internal/billing/domain"
	"gorm.io/gorm"
)

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) domain.CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Insert(ctx context.Context, db *gorm.DB, profile *domain.CustomerProfile) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(profile).Error
}

func (r *customerRepo) List(ctx context.Context, db *gorm.DB, status *domain.CustomerStatus, limit int) ([]domain.CustomerProfile, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx).Order("id ASC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var profiles []domain.CustomerProfile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *customerRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CustomerProfile, error) {
	if db == nil {
		db = r.db
	}
	var profile domain.CustomerProfile
	if err := db.WithContext(ctx).First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *customerRepo) IncrementAdvanceBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal) error {
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).Model(&domain.CustomerProfile{}).
		Where("id = ?", id).
		Update("advance_balance", gorm.Expr("advance_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *customerRepo) SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.CustomerStatus) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Model(&domain.CustomerProfile{}).
		Where("id = ?", id).
		Update("status", status).Error
}
