package purchases

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newStripeTestServer(t *testing.T, handler http.HandlerFunc) *StripePaymentVerifier {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewStripePaymentVerifier(srv.Client(), StripeVerifierConfig{
		APIBaseURL:       srv.URL,
		SecretKey:        "sk_test_secret",
		DefaultProductID: "com.vagusnervereset.premium.lifetime",
	})
}

func TestStripeVerifySucceededIntent(t *testing.T) {
	verifier := newStripeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/payment_intents/") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Fatalf("unexpected authorization header: %q", got)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "pi_123",
			"status":  "succeeded",
			"created": 1700000000,
			"metadata": map[string]string{
				"product_id": "com.vagusnervereset.premium.annual",
			},
		})
	})

	verified, err := verifier.Verify(context.Background(), "pi_123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.ProductID != "com.vagusnervereset.premium.annual" {
		t.Fatalf("metadata product_id must win, got %s", verified.ProductID)
	}
	if verified.SourceTransactionID != "pi_123" {
		t.Fatalf("unexpected source transaction: %s", verified.SourceTransactionID)
	}
	if want := time.Unix(1700000000, 0).UTC(); !verified.AcquiredAt.Equal(want) {
		t.Fatalf("unexpected acquired_at: %s", verified.AcquiredAt)
	}
}

func TestStripeVerifyFallsBackToDefaultProduct(t *testing.T) {
	verifier := newStripeTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "pi_456",
			"status":  "succeeded",
			"created": 1700000000,
		})
	})

	verified, err := verifier.Verify(context.Background(), "pi_456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.ProductID != "com.vagusnervereset.premium.lifetime" {
		t.Fatalf("expected default product id, got %s", verified.ProductID)
	}
}

func TestStripeVerifyNotSucceeded(t *testing.T) {
	verifier := newStripeTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "pi_789",
			"status": "requires_payment_method",
		})
	})

	_, err := verifier.Verify(context.Background(), "pi_789")
	if !errors.Is(err, ErrPaymentNotSucceeded) {
		t.Fatalf("expected payment-not-succeeded, got %v", err)
	}

	var statusErr *PaymentStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected PaymentStatusError, got %T", err)
	}
	if statusErr.Status != "requires_payment_method" {
		t.Fatalf("processor status must be preserved, got %q", statusErr.Status)
	}
}

func TestStripeVerifyAPIError(t *testing.T) {
	verifier := newStripeTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := verifier.Verify(context.Background(), "pi_err")
	if !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("expected verification unavailable, got %v", err)
	}
}
