package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// SequenceAllocator hands out the next counter for a (kind, year) key.
// Implementations must be race-free under concurrent callers: two calls never
// see the same value and no value is skipped. Called inside the invoice
// creation transaction so a rollback releases the number with the invoice.
type SequenceAllocator interface {
	Next(ctx context.Context, tx *gorm.DB, kind InvoiceKind, year int) (int64, error)
}

type InvoiceRepository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, kind *InvoiceKind, limit int) ([]Invoice, error)
}
