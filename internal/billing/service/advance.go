package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/wavelinklabs/wavelink/internal/billing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdvanceParams struct {
	fx.In

	Log          *zap.Logger
	CustomerRepo domain.CustomerRepository
}

// AdvanceBalanceImpl holds overpayment as a standing, credit-only customer
// balance. There is no debit path; reconciling unapplied credit against a
// future bill is a separate feature.
type AdvanceBalanceImpl struct {
	log          *zap.Logger
	customerRepo domain.CustomerRepository
}

func NewAdvanceBalance(p AdvanceParams) domain.AdvanceBalance {
	return &AdvanceBalanceImpl{
		log:          p.Log.Named("billing.advance"),
		customerRepo: p.CustomerRepo,
	}
}

func (s *AdvanceBalanceImpl) Credit(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if err := s.customerRepo.IncrementAdvanceBalance(ctx, tx, customerID, amount); err != nil {
		return err
	}
	s.log.Info("advance balance credited",
		zap.Int64("customer_id", int64(customerID)),
		zap.String("amount", amount.String()))
	return nil
}

func (s *AdvanceBalanceImpl) Balance(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) (decimal.Decimal, error) {
	profile, err := s.customerRepo.FindByID(ctx, tx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	if profile == nil {
		return decimal.Zero, domain.ErrCustomerNotFound
	}
	return profile.AdvanceBalance, nil
}
