package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
)

var (
	ErrMethodNotSupported = errors.New("no verifier for payment method")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

type VerifyRequest struct {
	Method         billingdomain.PaymentMethod
	TrxID          string
	ExpectedAmount decimal.Decimal
}

// VerifyResult is the gateway's verdict. Verified == true is taken as
// sufficient proof of funds movement; the ledger does not reconcile further.
type VerifyResult struct {
	Verified       bool
	Amount         decimal.Decimal
	CanonicalTrxID string
	Reason         string
}

type Verifier interface {
	Method() billingdomain.PaymentMethod
	Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error)
}
