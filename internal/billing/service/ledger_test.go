package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/billing/repository"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	db       *gorm.DB
	ledger   domain.Ledger
	bills    domain.BillRepository
	payments domain.PaymentRepository
	profiles domain.CustomerRepository
	genID    *snowflake.Node
}

func newLedgerFixture(t *testing.T, withActivation bool) *ledgerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.CustomerProfile{}, &domain.Bill{}, &domain.Payment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	bills := repository.NewBillRepository(db)
	payments := repository.NewPaymentRepository(db)
	profiles := repository.NewCustomerRepository(db)

	var hook domain.ActivationHook
	if withActivation {
		hook = func(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) error {
			profile, err := profiles.FindByID(ctx, tx, customerID)
			if err != nil || profile == nil {
				return err
			}
			if profile.Status != domain.CustomerStatusInactive {
				return nil
			}
			return profiles.SetStatus(ctx, tx, customerID, domain.CustomerStatusActive)
		}
	}

	advance := NewAdvanceBalance(AdvanceParams{
		Log:          zap.NewNop(),
		CustomerRepo: profiles,
	})
	ledger := NewLedger(LedgerParams{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.New(),
		BillRepo:     bills,
		PaymentRepo:  payments,
		CustomerRepo: profiles,
		Advance:      advance,
		OnPaid:       hook,
	})

	return &ledgerFixture{
		db:       db,
		ledger:   ledger,
		bills:    bills,
		payments: payments,
		profiles: profiles,
		genID:    node,
	}
}

func (f *ledgerFixture) seedCustomer(t *testing.T, status domain.CustomerStatus, advance decimal.Decimal) *domain.CustomerProfile {
	t.Helper()
	profile := &domain.CustomerProfile{
		ID:             f.genID.Generate(),
		Name:           "Rahim Uddin",
		Status:         status,
		AdvanceBalance: advance,
	}
	require.NoError(t, f.db.Create(profile).Error)
	return profile
}

func (f *ledgerFixture) seedBill(t *testing.T, customerID snowflake.ID, amount, discount int64) *domain.Bill {
	t.Helper()
	bill := &domain.Bill{
		ID:             f.genID.Generate(),
		CustomerID:     customerID,
		PackageName:    "Home 20Mbps",
		Amount:         decimal.NewFromInt(amount),
		DiscountAmount: decimal.NewFromInt(discount),
		Status:         domain.BillStatusPending,
	}
	require.NoError(t, f.db.Create(bill).Error)
	return bill
}

func apply(t *testing.T, f *ledgerFixture, billID snowflake.ID, amount int64, trxID string) (*domain.Receipt, error) {
	t.Helper()
	return f.ledger.ApplyPayment(context.Background(), domain.ApplyPaymentInput{
		BillID: billID,
		Amount: decimal.NewFromInt(amount),
		Method: domain.MethodBkash,
		TrxID:  trxID,
	})
}

func TestApplyPayment_StatusDerivation(t *testing.T) {
	f := newLedgerFixture(t, false)
	customer := f.seedCustomer(t, domain.CustomerStatusActive, decimal.Zero)
	bill := f.seedBill(t, customer.ID, 1200, 200) // net 1000

	receipt, err := apply(t, f, bill.ID, 400, "TRX4001A")
	require.NoError(t, err)
	require.Equal(t, domain.BillStatusPartial, receipt.Bill.Status)
	require.Nil(t, receipt.Bill.PaidAt)

	receipt, err = apply(t, f, bill.ID, 600, "TRX6001B")
	require.NoError(t, err)
	require.Equal(t, domain.BillStatusPaid, receipt.Bill.Status)
	require.NotNil(t, receipt.Bill.PaidAt)
	require.True(t, receipt.AdvanceBalance.IsZero())
}

func TestApplyPayment_NoDoubleSettlement(t *testing.T) {
	f := newLedgerFixture(t, false)
	customer := f.seedCustomer(t, domain.CustomerStatusActive, decimal.Zero)
	bill := f.seedBill(t, customer.ID, 500, 0)

	_, err := apply(t, f, bill.ID, 500, "TRX500AA")
	require.NoError(t, err)

	_, err = apply(t, f, bill.ID, 100, "TRX100BB")
	require.ErrorIs(t, err, domain.ErrAlreadySettled)

	sum, err := f.payments.SumForBill(context.Background(), nil, bill.ID)
	require.NoError(t, err)
	require.True(t, sum.Equal(decimal.NewFromInt(500)))

	profile, err := f.profiles.FindByID(context.Background(), nil, customer.ID)
	require.NoError(t, err)
	require.True(t, profile.AdvanceBalance.IsZero())
}

func TestApplyPayment_OverflowRouting(t *testing.T) {
	f := newLedgerFixture(t, false)
	customer := f.seedCustomer(t, domain.CustomerStatusActive, decimal.NewFromInt(50))
	bill := f.seedBill(t, customer.ID, 1000, 0)

	_, err := apply(t, f, bill.ID, 800, "TRX800CC")
	require.NoError(t, err)

	receipt, err := apply(t, f, bill.ID, 500, "TRX500DD")
	require.NoError(t, err)
	require.Equal(t, domain.BillStatusPaid, receipt.Bill.Status)
	require.True(t, receipt.AdvanceBalance.Equal(decimal.NewFromInt(350)),
		"expected 50 prior + 300 overflow, got %s", receipt.AdvanceBalance)
}

func TestApplyPayment_Validation(t *testing.T) {
	f := newLedgerFixture(t, false)
	customer := f.seedCustomer(t, domain.CustomerStatusActive, decimal.Zero)
	bill := f.seedBill(t, customer.ID, 1000, 0)

	_, err := f.ledger.ApplyPayment(context.Background(), domain.ApplyPaymentInput{
		BillID: bill.ID, Amount: decimal.Zero, Method: domain.MethodBkash, TrxID: "TRXZERO1",
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.ledger.ApplyPayment(context.Background(), domain.ApplyPaymentInput{
		BillID: bill.ID, Amount: decimal.NewFromInt(10), Method: domain.MethodBkash, TrxID: "AB1",
	})
	require.ErrorIs(t, err, domain.ErrTrxTooShort)

	_, err = f.ledger.ApplyPayment(context.Background(), domain.ApplyPaymentInput{
		BillID: bill.ID, Amount: decimal.NewFromInt(10), Method: "PAYPAL", TrxID: "TRX10EE1",
	})
	require.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = f.ledger.ApplyPayment(context.Background(), domain.ApplyPaymentInput{
		BillID: f.genID.Generate(), Amount: decimal.NewFromInt(10), Method: domain.MethodBkash, TrxID: "TRX10FF1",
	})
	require.ErrorIs(t, err, domain.ErrBillNotFound)

	sum, err := f.payments.SumForBill(context.Background(), nil, bill.ID)
	require.NoError(t, err)
	require.True(t, sum.IsZero())
}

func TestApplyPayment_DuplicateTrxRollsBack(t *testing.T) {
	f := newLedgerFixture(t, false)
	customer := f.seedCustomer(t, domain.CustomerStatusActive, decimal.Zero)
	bill := f.seedBill(t, customer.ID, 1000, 0)

	_, err := apply(t, f, bill.ID, 300, "TRXSAME1")
	require.NoError(t, err)

	_, err = apply(t, f, bill.ID, 300, "TRXSAME1")
	require.ErrorIs(t, err, domain.ErrDuplicateTrx)

	sum, err := f.payments.SumForBill(context.Background(), nil, bill.ID)
	require.NoError(t, err)
	require.True(t, sum.Equal(decimal.NewFromInt(300)))

	fresh, err := f.bills.FindByID(context.Background(), nil, bill.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BillStatusPartial, fresh.Status)
}

func TestApplyPayment_ActivationHook(t *testing.T) {
	f := newLedgerFixture(t, true)

	inactive := f.seedCustomer(t, domain.CustomerStatusInactive, decimal.Zero)
	bill := f.seedBill(t, inactive.ID, 400, 0)
	_, err := apply(t, f, bill.ID, 400, "TRXACT01")
	require.NoError(t, err)
	fresh, err := f.profiles.FindByID(context.Background(), nil, inactive.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CustomerStatusActive, fresh.Status)

	suspended := f.seedCustomer(t, domain.CustomerStatusSuspended, decimal.Zero)
	bill = f.seedBill(t, suspended.ID, 400, 0)
	_, err = apply(t, f, bill.ID, 400, "TRXACT02")
	require.NoError(t, err)
	fresh, err = f.profiles.FindByID(context.Background(), nil, suspended.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CustomerStatusSuspended, fresh.Status)
}
