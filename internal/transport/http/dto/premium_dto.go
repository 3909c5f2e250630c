package dto

import "time"

type PremiumStatusResponse struct {
	IsPremium          bool       `json:"is_premium"`
	IsTrial            bool       `json:"is_trial"`
	TrialDaysRemaining *int       `json:"trial_days_remaining,omitempty"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
}

type EntitlementItem struct {
	ProductID   string     `json:"product_id"`
	Status      string     `json:"status"`
	Platform    string     `json:"platform"`
	AcquiredAt  time.Time  `json:"acquired_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	SourceTxnID string     `json:"source_txn_id"`
}

type EntitlementsResponse struct {
	Entitlements []EntitlementItem `json:"entitlements"`
}
