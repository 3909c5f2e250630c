package purchases

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrMissingField            = errors.New("missing required field")
	ErrUnsupportedPlatform     = errors.New("unsupported platform")
	ErrVerificationUnavailable = errors.New("verification authority unavailable")
	ErrReceiptInvalid          = errors.New("receipt invalid")
	ErrTransactionNotFound     = errors.New("transaction not found in receipt")
	ErrPaymentNotSucceeded     = errors.New("payment not succeeded")
	ErrRateLimited             = errors.New("verification rate limited")
)

// appleStatusMessages mirrors the App Store receipt status-code table.
// https://developer.apple.com/documentation/appstorereceipts/status
var appleStatusMessages = map[int]string{
	21000: "the App Store could not read the request JSON",
	21002: "the receipt-data property was malformed or missing",
	21003: "the receipt could not be authenticated",
	21004: "the shared secret does not match the account secret",
	21005: "the receipt server is not currently available",
	21006: "the receipt is valid but the subscription has expired",
	21007: "sandbox receipt sent to the production environment",
	21008: "production receipt sent to the sandbox environment",
	21010: "the receipt could not be authorized",
}

// ReceiptStatusError is a non-zero App Store verification status. Each code
// is a distinct, diagnosable sub-reason of ErrReceiptInvalid.
type ReceiptStatusError struct {
	Code int
}

func (e *ReceiptStatusError) Error() string {
	if msg, ok := appleStatusMessages[e.Code]; ok {
		return fmt.Sprintf("receipt verification failed (status %d): %s", e.Code, msg)
	}
	return fmt.Sprintf("receipt verification failed (status %d)", e.Code)
}

func (e *ReceiptStatusError) Unwrap() error {
	return ErrReceiptInvalid
}

// PaymentStatusError carries the settlement status the processor actually
// reported when it was anything other than succeeded.
type PaymentStatusError struct {
	Status string
}

func (e *PaymentStatusError) Error() string {
	return fmt.Sprintf("payment not successful: %s", e.Status)
}

func (e *PaymentStatusError) Unwrap() error {
	return ErrPaymentNotSucceeded
}

// RateLimitedError reports how long the caller should wait before retrying.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("verification rate limited, retry after %ds", e.RetryAfterSec)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
