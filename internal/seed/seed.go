// Package seed loads demo subscribers and bills for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"gorm.io/gorm"
)

type demoCustomer struct {
	name        string
	status      billingdomain.CustomerStatus
	packageName string
	amount      int64
	discount    int64
	token       string
}

var demoCustomers = []demoCustomer{
	{"Jamal Hossain", billingdomain.CustomerStatusActive, "Home 20Mbps", 1000, 0, "demo-jamal"},
	{"Rina Akter", billingdomain.CustomerStatusActive, "Home 40Mbps", 1500, 100, "demo-rina"},
	{"Karim Traders", billingdomain.CustomerStatusInactive, "SME 100Mbps", 5000, 0, "demo-karim"},
	{"Shapla Begum", billingdomain.CustomerStatusSuspended, "Home 10Mbps", 600, 0, "demo-shapla"},
}

// Ensure creates the demo dataset when the customers table is empty. Safe to
// run repeatedly.
func Ensure(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&billingdomain.CustomerProfile{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		due := now.AddDate(0, 0, 10)
		expiry := now.AddDate(0, 0, 7)

		for _, dc := range demoCustomers {
			profile := &billingdomain.CustomerProfile{
				ID:             node.Generate(),
				Name:           dc.name,
				Status:         dc.status,
				AdvanceBalance: decimal.Zero,
			}
			if err := tx.Create(profile).Error; err != nil {
				return err
			}

			token := dc.token
			bill := &billingdomain.Bill{
				ID:                    node.Generate(),
				CustomerID:            profile.ID,
				PackageName:           dc.packageName,
				Amount:                decimal.NewFromInt(dc.amount),
				DiscountAmount:        decimal.NewFromInt(dc.discount),
				Status:                billingdomain.BillStatusPending,
				PaymentToken:          &token,
				PaymentTokenExpiresAt: &expiry,
				DueDate:               &due,
			}
			if err := tx.Create(bill).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
