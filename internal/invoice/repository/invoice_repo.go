package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/wavelinklabs/wavelink/internal/invoice/domain"
	"gorm.io/gorm"
)

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) domain.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	if db == nil {
		db = r.db
	}
	var inv domain.Invoice
	if err := db.WithContext(ctx).First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, db *gorm.DB, kind *domain.InvoiceKind, limit int) ([]domain.Invoice, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx).Order("created_at DESC")
	if kind != nil {
		q = q.Where("kind = ?", *kind)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var invoices []domain.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
