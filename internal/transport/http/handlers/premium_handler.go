package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/pkaiserui/VagusNerveReset/internal/services/auth"
	premiumsvc "github.com/pkaiserui/VagusNerveReset/internal/services/premium"
	"github.com/pkaiserui/VagusNerveReset/internal/transport/http/dto"
	httperrors "github.com/pkaiserui/VagusNerveReset/internal/transport/http/errors"
)

type PremiumHandler struct {
	premium *premiumsvc.Service
}

func NewPremiumHandler(premium *premiumsvc.Service) *PremiumHandler {
	return &PremiumHandler{premium: premium}
}

func (h *PremiumHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.Status(w, r)
}

func (h *PremiumHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	if h.premium == nil {
		writeInternal(w, "premium service is unavailable")
		return
	}

	status, err := h.premium.Status(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, premiumsvc.ErrValidation):
			writeBadRequest(w, "invalid premium status request")
		default:
			writeInternal(w, "failed to load premium status")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PremiumStatusResponse{
		IsPremium:          status.IsPremium,
		IsTrial:            status.IsTrial,
		TrialDaysRemaining: status.TrialDaysRemaining,
		TrialEndsAt:        status.TrialEndsAt,
	})
}

func (h *PremiumHandler) Entitlements(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	if h.premium == nil {
		writeInternal(w, "premium service is unavailable")
		return
	}

	ents, err := h.premium.Entitlements(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, premiumsvc.ErrValidation):
			writeBadRequest(w, "invalid entitlements request")
		default:
			writeInternal(w, "failed to load entitlements")
		}
		return
	}

	items := make([]dto.EntitlementItem, 0, len(ents))
	for _, ent := range ents {
		items = append(items, dto.EntitlementItem{
			ProductID:   ent.ProductID,
			Status:      string(ent.Status),
			Platform:    string(ent.Platform),
			AcquiredAt:  ent.AcquiredAt,
			ExpiresAt:   ent.ExpiresAt,
			SourceTxnID: ent.SourceTxnID,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.EntitlementsResponse{Entitlements: items})
}
