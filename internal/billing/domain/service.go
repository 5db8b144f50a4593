package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ApplyPaymentInput struct {
	BillID snowflake.ID
	Amount decimal.Decimal
	Method PaymentMethod
	TrxID  string
}

// Ledger is the single place a verified payment becomes durable state.
type Ledger interface {
	ApplyPayment(ctx context.Context, in ApplyPaymentInput) (*Receipt, error)
	GetBill(ctx context.Context, id snowflake.ID) (*Bill, []Payment, error)
}

// AdvanceBalance is the per-customer credit account. Credit is its only
// mutator and is called exclusively by the ledger, inside the ledger's
// transaction.
type AdvanceBalance interface {
	Credit(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, amount decimal.Decimal) error
	// Balance reads the current credit; a nil tx reads outside any transaction.
	Balance(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) (decimal.Decimal, error)
}

// ActivationHook runs inside the settlement transaction when a bill becomes
// PAID. Whether (and when) settlement reactivates a customer is policy owned
// outside the ledger.
type ActivationHook func(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) error

// MinTrxIDLen is enforced locally before any gateway call.
const MinTrxIDLen = 6
