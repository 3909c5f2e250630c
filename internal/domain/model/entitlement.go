package model

import (
	"time"

	"github.com/pkaiserui/VagusNerveReset/internal/domain/enums"
)

type Entitlement struct {
	UserID      string                  `json:"user_id"`
	ProductID   string                  `json:"product_id"`
	Status      enums.EntitlementStatus `json:"status"`
	Platform    enums.Platform          `json:"platform"`
	AcquiredAt  time.Time               `json:"acquired_at"`
	ExpiresAt   *time.Time              `json:"expires_at,omitempty"`
	SourceTxnID string                  `json:"source_txn_id"`
}
