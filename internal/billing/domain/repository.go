package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillRepository callers pass their transaction handle; a nil db falls back
// to the repository's own connection.
type BillRepository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	// FindPayableByToken matches token, unexpired, not yet PAID. A miss is a
	// plain not-found regardless of cause.
	FindPayableByToken(ctx context.Context, db *gorm.DB, token string, now time.Time) (*Bill, error)
	Update(ctx context.Context, db *gorm.DB, bill *Bill) error
	SetPaymentToken(ctx context.Context, db *gorm.DB, id snowflake.ID, token string, expiresAt *time.Time) error
}

type PaymentRepository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByBillAndTrx(ctx context.Context, db *gorm.DB, billID snowflake.ID, trxID string) (*Payment, error)
	SumForBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) (decimal.Decimal, error)
	ListForBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]Payment, error)
}

type CustomerRepository interface {
	Insert(ctx context.Context, db *gorm.DB, profile *CustomerProfile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CustomerProfile, error)
	List(ctx context.Context, db *gorm.DB, status *CustomerStatus, limit int) ([]CustomerProfile, error)
	// IncrementAdvanceBalance applies an atomic in-database increment; it must
	// run inside the same transaction as the bill-status transition.
	IncrementAdvanceBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal) error
	SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status CustomerStatus) error
}
