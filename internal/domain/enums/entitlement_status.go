package enums

type EntitlementStatus string

const (
	EntitlementStatusActive    EntitlementStatus = "active"
	EntitlementStatusCancelled EntitlementStatus = "cancelled"
	EntitlementStatusRefunded  EntitlementStatus = "refunded"
	EntitlementStatusExpired   EntitlementStatus = "expired"
)
