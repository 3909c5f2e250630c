package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	authsvc "github.com/pkaiserui/VagusNerveReset/internal/services/auth"
)

const testJWTSecret = "test-secret"

func signTestToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthService() *authsvc.Service {
	return authsvc.NewService(authsvc.NewJWTManager(testJWTSecret))
}

func TestAuthMiddlewareResolvesIdentity(t *testing.T) {
	var gotIdentity authsvc.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing from context")
		}
		gotIdentity = identity
		w.WriteHeader(http.StatusNoContent)
	})

	mw := AuthMiddleware(newAuthService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/premium/status", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-42", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotIdentity.UserID != "user-42" {
		t.Fatalf("unexpected identity: %+v", gotIdentity)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("next handler must not run on rejection")
	})
	mw := AuthMiddleware(newAuthService(), nil)

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "expired token", header: "Bearer {expired}"},
		{name: "wrong secret", header: "Bearer {wrongsecret}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := tc.header
			switch header {
			case "Bearer {expired}":
				header = "Bearer " + signTestToken(t, "user-42", time.Now().Add(-time.Hour))
			case "Bearer {wrongsecret}":
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
					Subject:   "user-42",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				})
				signed, err := token.SignedString([]byte("other-secret"))
				if err != nil {
					t.Fatalf("sign token: %v", err)
				}
				header = "Bearer " + signed
			}

			req := httptest.NewRequest(http.MethodGet, "/premium/status", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			mw(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, ok := extractBearerToken(""); ok {
		t.Fatalf("empty header must not yield a token")
	}
	if _, ok := extractBearerToken("Bearer "); ok {
		t.Fatalf("blank token must not be accepted")
	}
	token, ok := extractBearerToken("bearer abc.def.ghi")
	if !ok || token != "abc.def.ghi" {
		t.Fatalf("case-insensitive scheme must be accepted, got %q ok=%v", token, ok)
	}
}
