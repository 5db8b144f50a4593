package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	auditdomain "github.com/wavelinklabs/wavelink/internal/audit/domain"
	auditrepo "github.com/wavelinklabs/wavelink/internal/audit/repository"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"github.com/wavelinklabs/wavelink/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSchedulerFixture(t *testing.T, now time.Time, retentionDays int) (*Scheduler, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&billingdomain.CustomerProfile{},
		&billingdomain.Bill{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := New(Params{
		Cfg:   config.Config{AuditRetentionDays: retentionDays},
		Log:   zap.NewNop(),
		DB:    db,
		Clock: clock.Fixed{T: now},
		Audit: auditrepo.Provide(db),
	})
	return s, db, node
}

func seedBill(t *testing.T, db *gorm.DB, node *snowflake.Node, token string, expiresAt *time.Time) snowflake.ID {
	t.Helper()
	bill := &billingdomain.Bill{
		ID:             node.Generate(),
		CustomerID:     node.Generate(),
		Amount:         decimal.NewFromInt(1000),
		DiscountAmount: decimal.Zero,
		Status:         billingdomain.BillStatusPending,
	}
	if token != "" {
		bill.PaymentToken = &token
		bill.PaymentTokenExpiresAt = expiresAt
	}
	require.NoError(t, db.Create(bill).Error)
	return bill.ID
}

func TestClearExpiredTokens(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s, db, node := newSchedulerFixture(t, now, 0)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	expired := seedBill(t, db, node, "tok-expired", &past)
	live := seedBill(t, db, node, "tok-live", &future)
	open := seedBill(t, db, node, "tok-open", nil)

	cleared, err := s.ClearExpiredTokens(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, cleared)

	var bill billingdomain.Bill
	require.NoError(t, db.First(&bill, expired).Error)
	require.Nil(t, bill.PaymentToken)
	require.Nil(t, bill.PaymentTokenExpiresAt)

	bill = billingdomain.Bill{}
	require.NoError(t, db.First(&bill, live).Error)
	require.NotNil(t, bill.PaymentToken)

	// A token with no expiry never gets swept.
	bill = billingdomain.Bill{}
	require.NoError(t, db.First(&bill, open).Error)
	require.NotNil(t, bill.PaymentToken)
}

func TestPruneAuditLogs(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s, db, node := newSchedulerFixture(t, now, 30)

	old := &auditdomain.AuditLog{
		ID: node.Generate(), Action: "payment.applied", Entity: "bill",
		CreatedAt: now.AddDate(0, 0, -60),
	}
	recent := &auditdomain.AuditLog{
		ID: node.Generate(), Action: "payment.applied", Entity: "bill",
		CreatedAt: now.AddDate(0, 0, -5),
	}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Create(recent).Error)

	pruned, err := s.PruneAuditLogs(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, pruned)

	var count int64
	require.NoError(t, db.Model(&auditdomain.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPruneDisabledWithoutRetention(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s, db, node := newSchedulerFixture(t, now, 0)

	require.NoError(t, db.Create(&auditdomain.AuditLog{
		ID: node.Generate(), Action: "payment.applied", Entity: "bill",
		CreatedAt: now.AddDate(-1, 0, 0),
	}).Error)

	pruned, err := s.PruneAuditLogs(context.Background())
	require.NoError(t, err)
	require.Zero(t, pruned)
}
