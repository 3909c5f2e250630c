package purchases

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const stripePaymentSucceeded = "succeeded"

// StripeVerifierConfig holds the payment-intent verification settings. The
// default product id covers payments whose metadata was never stamped by the
// upstream checkout integration.
type StripeVerifierConfig struct {
	APIBaseURL       string
	SecretKey        string
	DefaultProductID string
}

// StripePaymentVerifier fetches a payment intent from the Stripe API and
// checks its settlement status.
type StripePaymentVerifier struct {
	httpClient *http.Client
	cfg        StripeVerifierConfig
}

type stripePaymentIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

func NewStripePaymentVerifier(httpClient *http.Client, cfg StripeVerifierConfig) *StripePaymentVerifier {
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	return &StripePaymentVerifier{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

func (v *StripePaymentVerifier) Verify(ctx context.Context, paymentReference string) (VerifiedTransaction, error) {
	if v.httpClient == nil {
		return VerifiedTransaction{}, fmt.Errorf("http client is nil")
	}
	if v.cfg.SecretKey == "" {
		return VerifiedTransaction{}, fmt.Errorf("stripe secret key is not configured")
	}

	endpoint := v.cfg.APIBaseURL + "/v1/payment_intents/" + url.PathEscape(paymentReference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("create payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.cfg.SecretKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return VerifiedTransaction{}, fmt.Errorf("%w: payment intent fetch returned %d", ErrVerificationUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifiedTransaction{}, fmt.Errorf("%w: read payment intent response: %v", ErrVerificationUnavailable, err)
	}

	var intent stripePaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return VerifiedTransaction{}, fmt.Errorf("%w: parse payment intent response: %v", ErrVerificationUnavailable, err)
	}

	if intent.Status != stripePaymentSucceeded {
		return VerifiedTransaction{}, &PaymentStatusError{Status: intent.Status}
	}

	productID := strings.TrimSpace(intent.Metadata["product_id"])
	if productID == "" {
		productID = v.cfg.DefaultProductID
	}

	return VerifiedTransaction{
		ProductID:           productID,
		SourceTransactionID: paymentReference,
		AcquiredAt:          time.Unix(intent.Created, 0).UTC(),
		Cancelled:           false,
		RawPayload:          string(body),
	}, nil
}
