package paylink

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/clock"
	gatewaydomain "github.com/wavelinklabs/wavelink/internal/gateway/domain"
	"github.com/wavelinklabs/wavelink/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound covers unknown, expired and already-settled tokens
	// alike; an anonymous probe learns nothing about which it was.
	ErrLinkNotFound = errors.New("invalid or expired payment link")

	ErrVerificationFailed = errors.New("payment verification failed")
)

type Gateway interface {
	Supports(method billingdomain.PaymentMethod) bool
	Verify(ctx context.Context, req gatewaydomain.VerifyRequest) (gatewaydomain.VerifyResult, error)
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Metrics     *observability.Metrics `optional:"true"`
	BillRepo    billingdomain.BillRepository
	PaymentRepo billingdomain.PaymentRepository
	Customers   billingdomain.CustomerRepository
	Ledger      billingdomain.Ledger
	Gateway     Gateway
}

// Service is the capability surface for unauthenticated payers.
type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	metrics     *observability.Metrics
	billRepo    billingdomain.BillRepository
	paymentRepo billingdomain.PaymentRepository
	customers   billingdomain.CustomerRepository
	ledger      billingdomain.Ledger
	gateway     Gateway
}

func NewService(p Params) *Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("paylink"),
		clock:       p.Clock,
		metrics:     p.Metrics,
		billRepo:    p.BillRepo,
		paymentRepo: p.PaymentRepo,
		customers:   p.Customers,
		ledger:      p.Ledger,
		gateway:     p.Gateway,
	}
}

// IssueToken mints a fresh token on the bill, replacing any previous one.
// A nil ttl issues a link that never expires.
func (s *Service) IssueToken(ctx context.Context, billID snowflake.ID, ttl *time.Duration) (string, *time.Time, error) {
	token := strings.ToLower(ulid.MustNew(ulid.Timestamp(s.clock.Now(ctx)), rand.Reader).String())
	var expiresAt *time.Time
	if ttl != nil {
		t := s.clock.Now(ctx).Add(*ttl)
		expiresAt = &t
	}
	if err := s.billRepo.SetPaymentToken(ctx, nil, billID, token, expiresAt); err != nil {
		return "", nil, err
	}
	s.log.Info("payment link issued", zap.Int64("bill_id", int64(billID)))
	return token, expiresAt, nil
}

// ResolveByToken returns the payer-facing projection of a bill, or
// ErrLinkNotFound with no further detail.
func (s *Service) ResolveByToken(ctx context.Context, token string) (*billingdomain.BillProjection, error) {
	bill, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	paid, err := s.paymentRepo.SumForBill(ctx, nil, bill.ID)
	if err != nil {
		return nil, err
	}
	profile, err := s.customers.FindByID(ctx, nil, bill.CustomerID)
	if err != nil {
		return nil, err
	}
	customerName := ""
	if profile != nil {
		customerName = profile.Name
	}

	netTotal := bill.NetTotal()
	dueNow := netTotal.Sub(paid)
	if dueNow.IsNegative() {
		dueNow = decimal.Zero
	}

	if s.metrics != nil {
		s.metrics.PayLinkLookups.WithLabelValues("ok").Inc()
	}
	return &billingdomain.BillProjection{
		BillID:         bill.ID,
		CustomerName:   customerName,
		PackageName:    bill.PackageName,
		Amount:         bill.Amount,
		DiscountAmount: bill.DiscountAmount,
		TotalDue:       netTotal,
		PaidSoFar:      paid,
		DueNow:         dueNow,
		DueDate:        bill.DueDate,
	}, nil
}

// SubmitByToken re-resolves the token at submission time, verifies the claimed
// transaction with the gateway, then hands off to the ledger. Nothing is
// persisted unless verification passes.
func (s *Service) SubmitByToken(ctx context.Context, token string, amount decimal.Decimal, method billingdomain.PaymentMethod, trxID string) (*billingdomain.Receipt, error) {
	if !amount.IsPositive() {
		return nil, billingdomain.ErrInvalidAmount
	}
	if !billingdomain.PublicMethods[method] {
		return nil, billingdomain.ErrInvalidMethod
	}
	if len(strings.TrimSpace(trxID)) < billingdomain.MinTrxIDLen {
		return nil, billingdomain.ErrTrxTooShort
	}

	bill, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Verify(ctx, gatewaydomain.VerifyRequest{
		Method:         method,
		TrxID:          trxID,
		ExpectedAmount: amount,
	})
	if err != nil {
		return nil, err
	}
	if !result.Verified {
		if s.metrics != nil {
			s.metrics.VerificationFailures.WithLabelValues(string(method)).Inc()
		}
		s.log.Warn("payment verification rejected",
			zap.Int64("bill_id", int64(bill.ID)),
			zap.String("method", string(method)),
			zap.String("reason", result.Reason))
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, result.Reason)
	}

	canonical := strings.TrimSpace(result.CanonicalTrxID)
	if canonical == "" {
		canonical = strings.TrimSpace(trxID)
	}

	receipt, err := s.ledger.ApplyPayment(ctx, billingdomain.ApplyPaymentInput{
		BillID: bill.ID,
		Amount: amount,
		Method: method,
		TrxID:  canonical,
	})
	if errors.Is(err, billingdomain.ErrDuplicateTrx) {
		// The payer retried after a commit whose response they never saw.
		// The transaction is already on the bill; hand back that outcome.
		return s.replayReceipt(ctx, bill.ID, canonical)
	}
	return receipt, err
}

func (s *Service) replayReceipt(ctx context.Context, billID snowflake.ID, trxID string) (*billingdomain.Receipt, error) {
	payment, err := s.paymentRepo.FindByBillAndTrx(ctx, nil, billID, trxID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("recorded payment missing for replayed transaction")
	}

	bill, err := s.billRepo.FindByID(ctx, nil, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, billingdomain.ErrBillNotFound
	}

	advance := decimal.Zero
	if profile, err := s.customers.FindByID(ctx, nil, bill.CustomerID); err != nil {
		return nil, err
	} else if profile != nil {
		advance = profile.AdvanceBalance
	}

	s.log.Info("payment replay acknowledged",
		zap.Int64("bill_id", int64(billID)),
		zap.String("trx_id", trxID))
	return &billingdomain.Receipt{
		Bill:           bill,
		Payment:        payment,
		AdvanceBalance: advance,
	}, nil
}

// SubmitStaffPayment is the settlement entrypoint for authenticated channels.
// Wallet methods still go through gateway verification; cash and adjustments
// are trusted as reconciled at the counter.
func (s *Service) SubmitStaffPayment(ctx context.Context, billID snowflake.ID, amount decimal.Decimal, method billingdomain.PaymentMethod, trxID string) (*billingdomain.Receipt, error) {
	if !amount.IsPositive() {
		return nil, billingdomain.ErrInvalidAmount
	}
	if len(strings.TrimSpace(trxID)) < billingdomain.MinTrxIDLen {
		return nil, billingdomain.ErrTrxTooShort
	}

	canonical := strings.TrimSpace(trxID)
	if s.gateway.Supports(method) {
		result, err := s.gateway.Verify(ctx, gatewaydomain.VerifyRequest{
			Method:         method,
			TrxID:          trxID,
			ExpectedAmount: amount,
		})
		if err != nil {
			return nil, err
		}
		if !result.Verified {
			if s.metrics != nil {
				s.metrics.VerificationFailures.WithLabelValues(string(method)).Inc()
			}
			return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, result.Reason)
		}
		if c := strings.TrimSpace(result.CanonicalTrxID); c != "" {
			canonical = c
		}
	}

	return s.ledger.ApplyPayment(ctx, billingdomain.ApplyPaymentInput{
		BillID: billID,
		Amount: amount,
		Method: method,
		TrxID:  canonical,
	})
}

func (s *Service) resolve(ctx context.Context, token string) (*billingdomain.Bill, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return nil, ErrLinkNotFound
	}
	bill, err := s.billRepo.FindPayableByToken(ctx, nil, token, s.clock.Now(ctx))
	if err != nil {
		return nil, err
	}
	if bill == nil {
		if s.metrics != nil {
			s.metrics.PayLinkLookups.WithLabelValues("miss").Inc()
		}
		return nil, ErrLinkNotFound
	}
	return bill, nil
}
