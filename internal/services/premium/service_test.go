package premium

import (
	"context"
	"testing"
	"time"

	pgrepo "github.com/pkaiserui/VagusNerveReset/internal/repo/postgres"
)

type stubEntitlementStore struct {
	active  bool
	records []pgrepo.EntitlementRecord
	err     error
}

func (s *stubEntitlementStore) HasActive(_ context.Context, _ string, _ time.Time) (bool, error) {
	return s.active, s.err
}

func (s *stubEntitlementStore) ListByUser(_ context.Context, _ string) ([]pgrepo.EntitlementRecord, error) {
	return s.records, s.err
}

type stubUserStore struct {
	createdAt time.Time
	err       error
}

func (s *stubUserStore) GetCreatedAt(_ context.Context, _ string) (time.Time, error) {
	if s.err != nil {
		return time.Time{}, s.err
	}
	return s.createdAt, nil
}

func newTestService(entitlements EntitlementStore, users UserStore, now time.Time) *Service {
	svc := NewService(entitlements, users, Config{TrialDuration: 14 * 24 * time.Hour})
	svc.now = func() time.Time { return now }
	return svc
}

func TestStatusPaidEntitlementWins(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	// User is far past trial; the persisted entitlement alone decides.
	users := &stubUserStore{createdAt: now.Add(-365 * 24 * time.Hour)}
	svc := newTestService(&stubEntitlementStore{active: true}, users, now)

	st, err := svc.Status(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.IsPremium {
		t.Fatalf("active entitlement must grant premium")
	}
	if st.IsTrial {
		t.Fatalf("paid premium must not report as trial")
	}
	if st.TrialDaysRemaining != nil || st.TrialEndsAt != nil {
		t.Fatalf("paid premium must not carry trial fields")
	}
}

func TestStatusTrialWindow(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-3*24*time.Hour - 6*time.Hour)
	svc := newTestService(&stubEntitlementStore{}, &stubUserStore{createdAt: createdAt}, now)

	st, err := svc.Status(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.IsPremium || !st.IsTrial {
		t.Fatalf("user inside trial window must be trial premium: %+v", st)
	}
	if st.TrialDaysRemaining == nil {
		t.Fatalf("trial must report days remaining")
	}
	// 14d - 3d6h elapsed = 10d18h left, rounded up to whole days.
	if *st.TrialDaysRemaining != 11 {
		t.Fatalf("expected 11 trial days remaining, got %d", *st.TrialDaysRemaining)
	}
	if st.TrialEndsAt == nil || !st.TrialEndsAt.Equal(createdAt.Add(14*24*time.Hour)) {
		t.Fatalf("unexpected trial end: %v", st.TrialEndsAt)
	}
}

func TestStatusTrialExpired(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&stubEntitlementStore{}, &stubUserStore{createdAt: now.Add(-15 * 24 * time.Hour)}, now)

	st, err := svc.Status(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.IsPremium || st.IsTrial {
		t.Fatalf("expired trial without entitlement must not be premium: %+v", st)
	}
}

func TestStatusUnknownUser(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(&stubEntitlementStore{}, &stubUserStore{err: pgrepo.ErrUserNotFound}, now)

	st, err := svc.Status(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.IsPremium {
		t.Fatalf("unknown user must not be premium")
	}
}

func TestEntitlementsMapsRecords(t *testing.T) {
	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &stubEntitlementStore{records: []pgrepo.EntitlementRecord{
		{
			UserID:      "user-1",
			ProductID:   "com.vagusnervereset.premium.lifetime",
			Status:      "active",
			Platform:    "ios",
			AcquiredAt:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			SourceTxnID: "tx-1",
		},
		{
			UserID:      "user-1",
			ProductID:   "com.vagusnervereset.premium.annual",
			Status:      "expired",
			Platform:    "web",
			AcquiredAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ExpiresAt:   &expires,
			SourceTxnID: "pi_1",
		},
	}}
	svc := newTestService(store, &stubUserStore{}, time.Now().UTC())

	ents, err := svc.Entitlements(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("entitlements: %v", err)
	}
	if len(ents) != 2 {
		t.Fatalf("expected 2 entitlements, got %d", len(ents))
	}
	if string(ents[0].Status) != "active" || string(ents[0].Platform) != "ios" {
		t.Fatalf("unexpected first entitlement: %+v", ents[0])
	}
	if ents[1].ExpiresAt == nil || !ents[1].ExpiresAt.Equal(expires) {
		t.Fatalf("expires_at must survive mapping: %+v", ents[1])
	}
}
