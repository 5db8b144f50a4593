package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/clock"
	"github.com/wavelinklabs/wavelink/internal/invoice/domain"
	"github.com/wavelinklabs/wavelink/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Metrics   *observability.Metrics `optional:"true"`
	Repo      domain.InvoiceRepository
	Sequence  domain.SequenceAllocator
	Customers billingdomain.CustomerRepository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	metrics   *observability.Metrics
	repo      domain.InvoiceRepository
	sequence  domain.SequenceAllocator
	customers billingdomain.CustomerRepository
}

func NewService(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice"),
		genID:     p.GenID,
		clock:     p.Clock,
		metrics:   p.Metrics,
		repo:      p.Repo,
		sequence:  p.Sequence,
		customers: p.Customers,
	}
}

type CreateInput struct {
	Kind        domain.InvoiceKind
	CustomerID  snowflake.ID
	Description string
	Amount      decimal.Decimal
}

// Create allocates the next number for (kind, current year) and inserts the
// invoice in the same transaction. If the insert fails the allocation rolls
// back with it, so the sequence stays gap-free.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Invoice, error) {
	if _, ok := domain.ParseKind(string(in.Kind)); !ok {
		return nil, domain.ErrInvalidKind
	}
	if in.Amount.IsNegative() {
		return nil, billingdomain.ErrInvalidAmount
	}
	profile, err := s.customers.FindByID(ctx, nil, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, billingdomain.ErrCustomerNotFound
	}

	now := s.clock.Now(ctx)
	year := now.Year()

	var inv *domain.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		counter, err := s.sequence.Next(ctx, tx, in.Kind, year)
		if err != nil {
			return err
		}
		inv = &domain.Invoice{
			ID:          s.genID.Generate(),
			Number:      domain.FormatNumber(in.Kind, year, counter),
			Kind:        in.Kind,
			CustomerID:  in.CustomerID,
			Description: in.Description,
			Amount:      in.Amount,
			IssuedAt:    now,
			CreatedAt:   now,
		}
		return s.repo.Insert(ctx, tx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice created",
		zap.String("number", inv.Number),
		zap.String("kind", string(inv.Kind)))
	if s.metrics != nil {
		s.metrics.InvoiceNumbersIssued.WithLabelValues(string(inv.Kind)).Inc()
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, kind *domain.InvoiceKind, limit int) ([]domain.Invoice, error) {
	return s.repo.List(ctx, nil, kind, limit)
}
