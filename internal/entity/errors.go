package entity

import (
	"errors"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrAlreadyPaid          = errors.New("already paid")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrMerchantRefMissing   = errors.New("merchant reference missing")
	ErrAmountMismatch       = errors.New("amount mismatch")
	ErrServiceDisabled      = errors.New("payment service disabled")
	ErrNotConfigured        = errors.New("payment service not configured")
	ErrInvalidSignature     = errors.New("invalid signature")
)
