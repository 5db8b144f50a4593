package repository

import (
	"context"
	"fmt"

	"github.com/wavelinklabs/wavelink/internal/invoice/domain"
	"gorm.io/gorm"
)

type sequenceRepo struct {
	db *gorm.DB
}

func NewSequenceAllocator(db *gorm.DB) domain.SequenceAllocator {
	return &sequenceRepo{db: db}
}

// Next allocates through a single upsert: the conflicting UPDATE takes a row
// lock on the (kind, year) counter, so concurrent callers serialize on the
// key and each sees a distinct value. A plain read-then-insert would let two
// callers compute the same number.
func (r *sequenceRepo) Next(ctx context.Context, tx *gorm.DB, kind domain.InvoiceKind, year int) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var next int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO invoice_sequences (kind, year, last_value, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (kind, year)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1,
		              updated_at = CURRENT_TIMESTAMP
		RETURNING last_value`,
		kind, year,
	).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("allocate invoice number for %s/%d: %w", kind, year, err)
	}
	return next, nil
}
