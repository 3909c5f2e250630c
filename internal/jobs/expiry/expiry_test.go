package expiry

import (
	"context"
	"testing"
	"time"
)

type fakeExpirer struct {
	rows []fakeRow
}

type fakeRow struct {
	Status    string
	ExpiresAt *time.Time
}

func (f *fakeExpirer) MarkLapsedExpired(_ context.Context, at time.Time) (int64, error) {
	var affected int64
	for i := range f.rows {
		row := &f.rows[i]
		if row.Status != "active" || row.ExpiresAt == nil {
			continue
		}
		if !row.ExpiresAt.After(at) {
			row.Status = "expired"
			affected++
		}
	}
	return affected, nil
}

func TestRunExpiresOnlyLapsedRows(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	store := &fakeExpirer{rows: []fakeRow{
		{Status: "active", ExpiresAt: &past},
		{Status: "active", ExpiresAt: &future},
		{Status: "active"}, // lifetime, no expiry
		{Status: "cancelled", ExpiresAt: &past},
	}}

	job := New(store, nil)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run expiry job: %v", err)
	}

	if store.rows[0].Status != "expired" {
		t.Fatalf("lapsed active row must be expired, got %s", store.rows[0].Status)
	}
	if store.rows[1].Status != "active" {
		t.Fatalf("future row must stay active, got %s", store.rows[1].Status)
	}
	if store.rows[2].Status != "active" {
		t.Fatalf("lifetime row must stay active, got %s", store.rows[2].Status)
	}
	if store.rows[3].Status != "cancelled" {
		t.Fatalf("cancelled row must not change, got %s", store.rows[3].Status)
	}
}
