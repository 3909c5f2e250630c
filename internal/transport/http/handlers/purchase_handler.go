package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/pkaiserui/VagusNerveReset/internal/services/auth"
	purchasesvc "github.com/pkaiserui/VagusNerveReset/internal/services/purchases"
	"github.com/pkaiserui/VagusNerveReset/internal/transport/http/dto"
	httperrors "github.com/pkaiserui/VagusNerveReset/internal/transport/http/errors"
)

type PurchaseHandler struct {
	purchases *purchasesvc.Service
	logger    *zap.Logger
}

func NewPurchaseHandler(purchases *purchasesvc.Service, logger *zap.Logger) *PurchaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseHandler{
		purchases: purchases,
		logger:    logger,
	}
}

func (h *PurchaseHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.Verify(w, r)
}

func (h *PurchaseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	if h.purchases == nil {
		writeInternal(w, "purchase verification is unavailable")
		return
	}

	var req dto.VerifyPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.purchases.VerifyPurchase(r.Context(), identity.UserID, purchasesvc.VerifyInput{
		Platform:         req.Platform,
		TransactionID:    req.TransactionID,
		Receipt:          req.Receipt,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		h.writeVerifyError(w, identity.UserID, req.Platform, err)
		return
	}

	status := http.StatusOK
	message := "purchase verified, entitlement updated"
	if result.Created {
		status = http.StatusCreated
		message = "purchase verified, entitlement granted"
	}

	httperrors.Write(w, status, dto.VerifyPurchaseResponse{
		Success: true,
		Message: message,
		Entitlement: dto.EntitlementSummary{
			ProductID: result.Entitlement.ProductID,
			Status:    string(result.Entitlement.Status),
		},
	})
}

func (h *PurchaseHandler) writeVerifyError(w http.ResponseWriter, userID, platform string, err error) {
	var rateLimited *purchasesvc.RateLimitedError

	switch {
	case errors.As(err, &rateLimited):
		httperrors.Write(w, http.StatusTooManyRequests,
			httperrors.NewRateLimitError("too many verification attempts", rateLimited.RetryAfterSec))
	case errors.Is(err, purchasesvc.ErrValidation),
		errors.Is(err, purchasesvc.ErrMissingField),
		errors.Is(err, purchasesvc.ErrUnsupportedPlatform):
		writeBadRequest(w, err.Error())
	case errors.Is(err, purchasesvc.ErrReceiptInvalid),
		errors.Is(err, purchasesvc.ErrTransactionNotFound),
		errors.Is(err, purchasesvc.ErrPaymentNotSucceeded):
		// The taxonomy errors carry the diagnosable sub-reason and are
		// safe for clients: no server-held secret ever appears in them.
		h.logger.Info("purchase verification rejected",
			zap.String("user_id", userID),
			zap.String("platform", platform),
			zap.Error(err))
		writeBadRequest(w, err.Error())
	case errors.Is(err, purchasesvc.ErrVerificationUnavailable):
		h.logger.Warn("verification authority unavailable",
			zap.String("user_id", userID),
			zap.String("platform", platform),
			zap.Error(err))
		writeBadGateway(w, "verification authority is unavailable, try again later")
	default:
		h.logger.Error("purchase verification failed",
			zap.String("user_id", userID),
			zap.String("platform", platform),
			zap.Error(err))
		writeInternal(w, "failed to verify purchase")
	}
}
