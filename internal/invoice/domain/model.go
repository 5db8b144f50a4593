package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type InvoiceKind string

const (
	KindProduct InvoiceKind = "PRODUCT"
	KindService InvoiceKind = "SERVICE"
)

var kindPrefixes = map[InvoiceKind]string{
	KindProduct: "PINV",
	KindService: "SINV",
}

func ParseKind(s string) (InvoiceKind, bool) {
	k := InvoiceKind(s)
	_, ok := kindPrefixes[k]
	return k, ok
}

// FormatNumber renders {PREFIX}-{year}-{counter:04d}; counters past 9999
// simply widen.
func FormatNumber(kind InvoiceKind, year int, counter int64) string {
	return fmt.Sprintf("%s-%d-%04d", kindPrefixes[kind], year, counter)
}

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidKind     = errors.New("unrecognized invoice kind")
)

type Invoice struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Number      string          `json:"number" gorm:"type:varchar(32);not null;uniqueIndex"`
	Kind        InvoiceKind     `json:"kind" gorm:"type:varchar(10);not null;index"`
	CustomerID  snowflake.ID    `json:"customer_id" gorm:"not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	IssuedAt    time.Time       `json:"issued_at" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceSequence is the per-(kind, year) high-water mark behind invoice
// numbering. Allocation happens through a single atomic upsert; the struct
// exists for migration and inspection, never read-modify-write.
type InvoiceSequence struct {
	Kind      InvoiceKind `json:"kind" gorm:"type:varchar(10);primaryKey"`
	Year      int         `json:"year" gorm:"primaryKey"`
	LastValue int64       `json:"last_value" gorm:"not null;default:0"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (InvoiceSequence) TableName() string { return "invoice_sequences" }
