package purchases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// AppleVerifierConfig holds the server-side receipt verification settings.
// The shared secret and the endpoint choice are operator configuration and
// never come from client input.
type AppleVerifierConfig struct {
	VerifyURL    string
	SharedSecret string
}

// AppleReceiptVerifier calls the App Store verifyReceipt endpoint and
// extracts the claimed transaction from the verified receipt.
type AppleReceiptVerifier struct {
	httpClient *http.Client
	cfg        AppleVerifierConfig
}

type appleVerifyRequest struct {
	ReceiptData            string `json:"receipt-data"`
	Password               string `json:"password"`
	ExcludeOldTransactions bool   `json:"exclude-old-transactions"`
}

type appleInAppTransaction struct {
	ProductID          string `json:"product_id"`
	TransactionID      string `json:"transaction_id"`
	PurchaseDateMS     string `json:"purchase_date_ms"`
	CancellationDateMS string `json:"cancellation_date_ms,omitempty"`
}

type appleVerifyResponse struct {
	Status  int `json:"status"`
	Receipt struct {
		InApp []appleInAppTransaction `json:"in_app"`
	} `json:"receipt"`
}

func NewAppleReceiptVerifier(httpClient *http.Client, cfg AppleVerifierConfig) *AppleReceiptVerifier {
	return &AppleReceiptVerifier{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

func (v *AppleReceiptVerifier) Verify(ctx context.Context, receipt, transactionID string) (VerifiedTransaction, error) {
	if v.httpClient == nil {
		return VerifiedTransaction{}, fmt.Errorf("http client is nil")
	}
	if v.cfg.SharedSecret == "" {
		return VerifiedTransaction{}, fmt.Errorf("apple shared secret is not configured")
	}

	payload, err := json.Marshal(appleVerifyRequest{
		ReceiptData:            receipt,
		Password:               v.cfg.SharedSecret,
		ExcludeOldTransactions: false,
	})
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, bytes.NewReader(payload))
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifiedTransaction{}, fmt.Errorf("%w: verify endpoint returned %d", ErrVerificationUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("%w: read verify response: %v", ErrVerificationUnavailable, err)
	}

	var verifyResp appleVerifyResponse
	if err := json.Unmarshal(body, &verifyResp); err != nil {
		return VerifiedTransaction{}, fmt.Errorf("%w: parse verify response: %v", ErrVerificationUnavailable, err)
	}

	if verifyResp.Status != 0 {
		return VerifiedTransaction{}, &ReceiptStatusError{Code: verifyResp.Status}
	}

	// The client-claimed id must be corroborated against the verified
	// receipt. Falling back to the first entry would let a valid but
	// unrelated receipt claim an arbitrary product.
	var match *appleInAppTransaction
	for i := range verifyResp.Receipt.InApp {
		if verifyResp.Receipt.InApp[i].TransactionID == transactionID {
			match = &verifyResp.Receipt.InApp[i]
			break
		}
	}
	if match == nil {
		return VerifiedTransaction{}, ErrTransactionNotFound
	}

	acquiredAt, err := parseAppleMillis(match.PurchaseDateMS)
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("parse purchase_date_ms: %w", err)
	}

	return VerifiedTransaction{
		ProductID:           match.ProductID,
		SourceTransactionID: match.TransactionID,
		AcquiredAt:          acquiredAt,
		Cancelled:           match.CancellationDateMS != "",
		RawPayload:          receipt,
	}, nil
}

func parseAppleMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid millisecond timestamp %q", raw)
	}
	return time.UnixMilli(ms).UTC(), nil
}
