package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkaiserui/VagusNerveReset/internal/domain/enums"
	"github.com/pkaiserui/VagusNerveReset/internal/domain/model"
	pgrepo "github.com/pkaiserui/VagusNerveReset/internal/repo/postgres"
	analyticsvc "github.com/pkaiserui/VagusNerveReset/internal/services/analytics"
)

// VerifiedTransaction is trusted purchase evidence. It is produced only by a
// successful call to a verification authority, never from client input.
type VerifiedTransaction struct {
	ProductID           string
	SourceTransactionID string
	AcquiredAt          time.Time
	Cancelled           bool
	RawPayload          string
}

type ReceiptVerifier interface {
	Verify(ctx context.Context, receipt, transactionID string) (VerifiedTransaction, error)
}

type PaymentVerifier interface {
	Verify(ctx context.Context, paymentReference string) (VerifiedTransaction, error)
}

type EntitlementStore interface {
	Upsert(ctx context.Context, rec pgrepo.EntitlementRecord) (pgrepo.EntitlementRecord, bool, error)
}

type RateLimiter interface {
	AllowVerify(ctx context.Context, userID string) (int64, bool, error)
}

type TelemetryService interface {
	IngestBatch(ctx context.Context, userID *string, events []analyticsvc.BatchEvent) error
}

type Service struct {
	receipts     ReceiptVerifier
	payments     PaymentVerifier
	entitlements EntitlementStore
	limiter      RateLimiter
	telemetry    TelemetryService
	now          func() time.Time
}

type Dependencies struct {
	Receipts     ReceiptVerifier
	Payments     PaymentVerifier
	Entitlements EntitlementStore
	RateLimiter  RateLimiter
}

type VerifyInput struct {
	Platform         string
	TransactionID    string
	Receipt          string
	PaymentReference string
}

type VerifyResult struct {
	Entitlement model.Entitlement
	Created     bool
}

func NewService(deps Dependencies) *Service {
	return &Service{
		receipts:     deps.Receipts,
		payments:     deps.Payments,
		entitlements: deps.Entitlements,
		limiter:      deps.RateLimiter,
		now:          time.Now,
	}
}

func (s *Service) AttachTelemetry(telemetry TelemetryService) {
	s.telemetry = telemetry
}

// VerifyPurchase authenticates nothing itself: the caller supplies an
// already-resolved user id. It validates request shape, verifies the
// purchase with the platform authority and reconciles the result into
// exactly one entitlement row per (user, product).
func (s *Service) VerifyPurchase(ctx context.Context, userID string, in VerifyInput) (VerifyResult, error) {
	if strings.TrimSpace(userID) == "" {
		return VerifyResult{}, ErrValidation
	}
	if s.entitlements == nil {
		return VerifyResult{}, fmt.Errorf("entitlement store is nil")
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowVerify(ctx, userID)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("rate limiter: %w", err)
		}
		if !allowed {
			return VerifyResult{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	if strings.TrimSpace(in.TransactionID) == "" {
		return VerifyResult{}, fmt.Errorf("%w: transactionId", ErrMissingField)
	}

	// Shape validation happens before any network call so malformed
	// requests never reach the verification authorities.
	platform := enums.Platform(strings.ToLower(strings.TrimSpace(in.Platform)))
	var verified VerifiedTransaction
	var err error
	switch platform {
	case enums.PlatformIOS:
		if strings.TrimSpace(in.Receipt) == "" {
			return VerifyResult{}, fmt.Errorf("%w: receipt is required for ios", ErrMissingField)
		}
		if s.receipts == nil {
			return VerifyResult{}, fmt.Errorf("receipt verifier is nil")
		}
		verified, err = s.receipts.Verify(ctx, in.Receipt, strings.TrimSpace(in.TransactionID))
	case enums.PlatformWeb:
		if strings.TrimSpace(in.PaymentReference) == "" {
			return VerifyResult{}, fmt.Errorf("%w: paymentReference is required for web", ErrMissingField)
		}
		if s.payments == nil {
			return VerifyResult{}, fmt.Errorf("payment verifier is nil")
		}
		verified, err = s.payments.Verify(ctx, strings.TrimSpace(in.PaymentReference))
	default:
		return VerifyResult{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, in.Platform)
	}
	if err != nil {
		return VerifyResult{}, err
	}

	status := enums.EntitlementStatusActive
	if verified.Cancelled {
		status = enums.EntitlementStatusCancelled
	}

	rec, created, err := s.entitlements.Upsert(ctx, pgrepo.EntitlementRecord{
		UserID:      userID,
		ProductID:   verified.ProductID,
		Status:      string(status),
		AcquiredAt:  verified.AcquiredAt,
		ExpiresAt:   nil,
		Platform:    string(platform),
		SourceTxnID: verified.SourceTransactionID,
		ReceiptData: verified.RawPayload,
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("reconcile entitlement: %w", err)
	}

	s.logVerificationAudit(ctx, userID, rec, created)

	return VerifyResult{
		Entitlement: model.Entitlement{
			UserID:      rec.UserID,
			ProductID:   rec.ProductID,
			Status:      enums.EntitlementStatus(rec.Status),
			Platform:    enums.Platform(rec.Platform),
			AcquiredAt:  rec.AcquiredAt,
			ExpiresAt:   rec.ExpiresAt,
			SourceTxnID: rec.SourceTxnID,
		},
		Created: created,
	}, nil
}

func (s *Service) logVerificationAudit(ctx context.Context, userID string, rec pgrepo.EntitlementRecord, created bool) {
	if s.telemetry == nil {
		return
	}

	uid := userID
	_ = s.telemetry.IngestBatch(ctx, &uid, []analyticsvc.BatchEvent{
		{
			Name: "purchase_verified",
			TS:   s.now().UTC().UnixMilli(),
			Props: map[string]any{
				"platform":      rec.Platform,
				"product_id":    rec.ProductID,
				"status":        rec.Status,
				"source_txn_id": rec.SourceTxnID,
				"created":       created,
			},
		},
	})
}
