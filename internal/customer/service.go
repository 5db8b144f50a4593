// Package customer is the staff-facing subscriber directory. The billing
// ledger reads and flips profiles; registration and manual status changes
// live here.
package customer

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidName = errors.New("customer name is required")

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Customers billingdomain.CustomerRepository
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	customers billingdomain.CustomerRepository
}

func NewService(p Params) *Service {
	return &Service{
		log:       p.Log.Named("customer"),
		genID:     p.GenID,
		clock:     p.Clock,
		customers: p.Customers,
	}
}

// Register creates a new subscriber. New profiles start INACTIVE; the first
// settled bill activates them.
func (s *Service) Register(ctx context.Context, name string) (*billingdomain.CustomerProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	profile := &billingdomain.CustomerProfile{
		ID:             s.genID.Generate(),
		Name:           name,
		Status:         billingdomain.CustomerStatusInactive,
		AdvanceBalance: decimal.Zero,
	}
	if err := s.customers.Insert(ctx, nil, profile); err != nil {
		return nil, err
	}

	s.log.Info("customer registered",
		zap.String("customer_id", profile.ID.String()),
		zap.String("name", profile.Name))
	return profile, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*billingdomain.CustomerProfile, error) {
	profile, err := s.customers.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, billingdomain.ErrCustomerNotFound
	}
	return profile, nil
}

func (s *Service) List(ctx context.Context, status *billingdomain.CustomerStatus, limit int) ([]billingdomain.CustomerProfile, error) {
	return s.customers.List(ctx, nil, status, limit)
}

// SetStatus applies a manual status change, typically a suspension for
// non-payment or a reconnection after one.
func (s *Service) SetStatus(ctx context.Context, id snowflake.ID, status billingdomain.CustomerStatus) (*billingdomain.CustomerProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.Status == status {
		return profile, nil
	}

	if err := s.customers.SetStatus(ctx, nil, id, status); err != nil {
		return nil, err
	}
	s.log.Info("customer status changed",
		zap.String("customer_id", id.String()),
		zap.String("from", string(profile.Status)),
		zap.String("to", string(status)))

	profile.Status = status
	return profile, nil
}
