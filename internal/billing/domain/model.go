package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillStatusPending BillStatus = "PENDING"
	BillStatusPartial BillStatus = "PARTIAL"
	BillStatusPaid    BillStatus = "PAID"
)

type PaymentMethod string

const (
	MethodBkash      PaymentMethod = "BKASH"
	MethodNagad      PaymentMethod = "NAGAD"
	MethodRocket     PaymentMethod = "ROCKET"
	MethodCash       PaymentMethod = "CASH"
	MethodAdjustment PaymentMethod = "ADJUSTMENT"
)

// PublicMethods are the channels accepted on the unauthenticated payment link.
var PublicMethods = map[PaymentMethod]bool{
	MethodBkash:  true,
	MethodNagad:  true,
	MethodRocket: true,
}

func ParseMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(s)
	switch m {
	case MethodBkash, MethodNagad, MethodRocket, MethodCash, MethodAdjustment:
		return m, true
	}
	return "", false
}

type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "ACTIVE"
	CustomerStatusInactive  CustomerStatus = "INACTIVE"
	CustomerStatusSuspended CustomerStatus = "SUSPENDED"
)

func ParseCustomerStatus(s string) (CustomerStatus, bool) {
	st := CustomerStatus(s)
	switch st {
	case CustomerStatusActive, CustomerStatusInactive, CustomerStatusSuspended:
		return st, true
	}
	return "", false
}

// Bill is a charge owed by a customer for a billing period. Financial record:
// rows are never deleted, and only the ledger mutates them.
type Bill struct {
	ID                    snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CustomerID            snowflake.ID    `json:"customer_id" gorm:"not null;index"`
	PackageName           string          `json:"package_name" gorm:"type:varchar(100)"`
	Amount                decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	DiscountAmount        decimal.Decimal `json:"discount_amount" gorm:"type:decimal(20,2);not null;default:0"`
	Status                BillStatus      `json:"status" gorm:"type:varchar(10);not null;default:'PENDING';index"`
	PaymentToken          *string         `json:"-" gorm:"type:varchar(32);uniqueIndex"`
	PaymentTokenExpiresAt *time.Time      `json:"-"`
	DueDate               *time.Time      `json:"due_date"`
	PaidAt                *time.Time      `json:"paid_at"`
	CreatedAt             time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt             time.Time       `json:"updated_at" gorm:"not null"`
}

func (Bill) TableName() string { return "bills" }

// NetTotal is the amount actually owed after discount.
func (b *Bill) NetTotal() decimal.Decimal {
	return b.Amount.Sub(b.DiscountAmount)
}

// Payment is an append-only ledger entry. The unique (bill_id, trx_id) index
// makes a retry of a verified-but-uncommitted submission safe.
type Payment struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	BillID     snowflake.ID    `json:"bill_id" gorm:"not null;index;uniqueIndex:idx_payments_bill_trx"`
	CustomerID snowflake.ID    `json:"customer_id" gorm:"not null;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Method     PaymentMethod   `json:"method" gorm:"type:varchar(20);not null"`
	TrxID      string          `json:"trx_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_payments_bill_trx"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

type CustomerProfile struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name           string          `json:"name" gorm:"type:varchar(120);not null"`
	Status         CustomerStatus  `json:"status" gorm:"type:varchar(10);not null;default:'INACTIVE'"`
	AdvanceBalance decimal.Decimal `json:"advance_balance" gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null"`
}

func (CustomerProfile) TableName() string { return "customer_profiles" }

// Receipt is what ApplyPayment hands back after the transaction commits.
type Receipt struct {
	Bill           *Bill           `json:"bill"`
	Payment        *Payment        `json:"payment"`
	AdvanceBalance decimal.Decimal `json:"advance_balance"`
}

// BillProjection is the read model served to an anonymous token holder.
type BillProjection struct {
	BillID         snowflake.ID    `json:"bill_id"`
	CustomerName   string          `json:"customer_name"`
	PackageName    string          `json:"package_name"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalDue       decimal.Decimal `json:"total_due"`
	PaidSoFar      decimal.Decimal `json:"paid_so_far"`
	DueNow         decimal.Decimal `json:"due_now"`
	DueDate        *time.Time      `json:"due_date"`
}
