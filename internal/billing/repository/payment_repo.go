package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/wavelinklabs/wavelink/internal/billing/domain"
	"gorm.io/gorm"
)

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	if db == nil {
		db = r.db
	}
	if err := db.WithContext(ctx).Create(payment).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTrx
		}
		return err
	}
	return nil
}

func (r *paymentRepo) FindByBillAndTrx(ctx context.Context, db *gorm.DB, billID snowflake.ID, trxID string) (*domain.Payment, error) {
	if db == nil {
		db = r.db
	}
	var payment domain.Payment
	if err := db.WithContext(ctx).
		Where("bill_id = ? AND trx_id = ?", billID, trxID).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) SumForBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) (decimal.Decimal, error) {
	if db == nil {
		db = r.db
	}
	var sum decimal.NullDecimal
	if err := db.WithContext(ctx).Model(&domain.Payment{}).
		Select("SUM(amount)").
		Where("bill_id = ?", billID).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *paymentRepo) ListForBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]domain.Payment, error) {
	if db == nil {
		db = r.db
	}
	var payments []domain.Payment
	if err := db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// isUniqueViolation matches both the postgres error text and sqlite's, so the
// duplicate-trx sentinel behaves the same under the test driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
