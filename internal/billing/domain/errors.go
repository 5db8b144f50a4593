package domain

import "errors"

var (
	ErrBillNotFound     = errors.New("bill not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAlreadySettled   = errors.New("bill already settled")
	ErrInvalidAmount    = errors.New("payment amount must be greater than zero")
	ErrInvalidMethod    = errors.New("unrecognized payment method")
	ErrTrxTooShort      = errors.New("transaction id too short")
	ErrDuplicateTrx     = errors.New("transaction already recorded for this bill")
)
