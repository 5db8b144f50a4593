package migration

import (
	"context"

	auditdomain "github.com/wavelinklabs/wavelink/internal/audit/domain"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	invoicedomain "github.com/wavelinklabs/wavelink/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(Run),
)

// Models is the full schema of the billing core.
func Models() []any {
	return []any{
		&billingdomain.CustomerProfile{},
		&billingdomain.Bill{},
		&billingdomain.Payment{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceSequence{},
		&auditdomain.AuditLog{},
	}
}

func Run(db *gorm.DB, log *zap.Logger) error {
	ctx := context.Background()

	// sqlite has no advisory locks; its writers serialize on the file anyway.
	if db.Dialector.Name() == "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		unlock, err := acquireAdvisoryLock(ctx, sqlDB)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				log.Warn("migration unlock", zap.Error(err))
			}
		}()
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("schema migrated")
	return nil
}
