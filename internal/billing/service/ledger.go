package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"github.com/wavelinklabs/wavelink/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LedgerParams struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Metrics      *observability.Metrics `optional:"true"`
	BillRepo     domain.BillRepository
	PaymentRepo  domain.PaymentRepository
	CustomerRepo domain.CustomerRepository
	Advance      domain.AdvanceBalance
	OnPaid       domain.ActivationHook `optional:"true"`
}

type LedgerImpl struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	metrics      *observability.Metrics
	billRepo     domain.BillRepository
	paymentRepo  domain.PaymentRepository
	customerRepo domain.CustomerRepository
	advance      domain.AdvanceBalance
	onPaid       domain.ActivationHook
}

func NewLedger(p LedgerParams) domain.Ledger {
	return &LedgerImpl{
		db:           p.DB,
		log:          p.Log.Named("billing.ledger"),
		genID:        p.GenID,
		clock:        p.Clock,
		metrics:      p.Metrics,
		billRepo:     p.BillRepo,
		paymentRepo:  p.PaymentRepo,
		customerRepo: p.CustomerRepo,
		advance:      p.Advance,
		onPaid:       p.OnPaid,
	}
}

// ApplyPayment records a verified payment against a bill. The bill row, the
// payment insert, the advance-balance increment and the activation hook all
// commit in one transaction; the bill row is locked for the duration so two
// concurrent settlements cannot both count toward PAID.
func (s *LedgerImpl) ApplyPayment(ctx context.Context, in domain.ApplyPaymentInput) (*domain.Receipt, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if len(strings.TrimSpace(in.TrxID)) < domain.MinTrxIDLen {
		return nil, domain.ErrTrxTooShort
	}
	if _, ok := domain.ParseMethod(string(in.Method)); !ok {
		return nil, domain.ErrInvalidMethod
	}

	var receipt *domain.Receipt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		bill, err := s.billRepo.FindByIDForUpdate(ctx, tx, in.BillID)
		if err != nil {
			return err
		}
		if bill == nil {
			return domain.ErrBillNotFound
		}
		if bill.Status == domain.BillStatusPaid {
			return domain.ErrAlreadySettled
		}

		netTotal := bill.NetTotal()
		priorPaid, err := s.paymentRepo.SumForBill(ctx, tx, bill.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now(ctx)
		payment := &domain.Payment{
			ID:         s.genID.Generate(),
			BillID:     bill.ID,
			CustomerID: bill.CustomerID,
			Amount:     in.Amount,
			Method:     in.Method,
			TrxID:      strings.TrimSpace(in.TrxID),
			CreatedAt:  now,
		}
		if err := s.paymentRepo.Insert(ctx, tx, payment); err != nil {
			return err
		}

		totalPaid := priorPaid.Add(in.Amount)
		overflow := totalPaid.Sub(netTotal)
		if overflow.IsNegative() {
			overflow = decimal.Zero
		}

		if totalPaid.GreaterThanOrEqual(netTotal) {
			bill.Status = domain.BillStatusPaid
			if bill.PaidAt == nil {
				paidAt := now
				bill.PaidAt = &paidAt
			}
		} else {
			bill.Status = domain.BillStatusPartial
		}
		bill.UpdatedAt = now
		if err := s.billRepo.Update(ctx, tx, bill); err != nil {
			return err
		}

		if overflow.IsPositive() {
			if err := s.advance.Credit(ctx, tx, bill.CustomerID, overflow); err != nil {
				return err
			}
		}

		if bill.Status == domain.BillStatusPaid && s.onPaid != nil {
			if err := s.onPaid(ctx, tx, bill.CustomerID); err != nil {
				return fmt.Errorf("activation hook: %w", err)
			}
		}

		balance, err := s.advance.Balance(ctx, tx, bill.CustomerID)
		if err != nil {
			return err
		}

		receipt = &domain.Receipt{Bill: bill, Payment: payment, AdvanceBalance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment applied",
		zap.Int64("bill_id", int64(receipt.Bill.ID)),
		zap.String("method", string(receipt.Payment.Method)),
		zap.String("amount", receipt.Payment.Amount.String()),
		zap.String("status", string(receipt.Bill.Status)))
	if s.metrics != nil {
		s.metrics.PaymentsApplied.WithLabelValues(string(receipt.Payment.Method), string(receipt.Bill.Status)).Inc()
	}
	return receipt, nil
}

func (s *LedgerImpl) GetBill(ctx context.Context, id snowflake.ID) (*domain.Bill, []domain.Payment, error) {
	bill, err := s.billRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, nil, err
	}
	if bill == nil {
		return nil, nil, domain.ErrBillNotFound
	}
	payments, err := s.paymentRepo.ListForBill(ctx, nil, id)
	if err != nil {
		return nil, nil, err
	}
	return bill, payments, nil
}
