package dto

// VerifyPurchaseRequest carries the client's claimed purchase evidence. The
// receipt and paymentReference are platform-specific: ios sends a receipt,
// web sends a payment reference. Nothing in this payload is trusted until a
// verification authority corroborates it.
type VerifyPurchaseRequest struct {
	Platform         string `json:"platform"`
	TransactionID    string `json:"transactionId"`
	Receipt          string `json:"receipt,omitempty"`
	PaymentReference string `json:"paymentReference,omitempty"`
}

type EntitlementSummary struct {
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
}

type VerifyPurchaseResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Entitlement EntitlementSummary `json:"entitlement"`
}
