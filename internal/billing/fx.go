package billing

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/billing/repository"
	"github.com/wavelinklabs/wavelink/internal/billing/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("billing",
	fx.Provide(repository.NewBillRepository),
	fx.Provide(repository.NewPaymentRepository),
	fx.Provide(repository.NewCustomerRepository),
	fx.Provide(service.NewAdvanceBalance),
	fx.Provide(service.NewLedger),
	fx.Provide(DefaultActivationHook),
)

// DefaultActivationHook reactivates a customer on full settlement, but only
// from INACTIVE. Suspensions are lifted by staff, not by a payment.
func DefaultActivationHook(repo domain.CustomerRepository) domain.ActivationHook {
	return func(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) error {
		profile, err := repo.FindByID(ctx, tx, customerID)
		if err != nil || profile == nil {
			return err
		}
		if profile.Status != domain.CustomerStatusInactive {
			return nil
		}
		return repo.SetStatus(ctx, tx, customerID, domain.CustomerStatusActive)
	}
}
