package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEntitlementNotFound = errors.New("entitlement not found")

type EntitlementRepo struct {
	pool *pgxpool.Pool
}

type EntitlementRecord struct {
	ID          string
	UserID      string
	ProductID   string
	Status      string
	AcquiredAt  time.Time
	ExpiresAt   *time.Time
	Platform    string
	SourceTxnID string
	ReceiptData string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewEntitlementRepo(pool *pgxpool.Pool) *EntitlementRepo {
	return &EntitlementRepo{pool: pool}
}

// Upsert writes the latest verified state for (user_id, product_id). The
// uniqueness constraint on that pair plus conflict-resolves-to-update keeps
// concurrent verifications of the same purchase converging to one row.
// acquired_at and created_at are written once and never touched on update.
func (r *EntitlementRepo) Upsert(ctx context.Context, rec EntitlementRecord) (EntitlementRecord, bool, error) {
	if r.pool == nil {
		return EntitlementRecord{}, false, fmt.Errorf("postgres pool is nil")
	}

	userID := strings.TrimSpace(rec.UserID)
	productID := strings.TrimSpace(rec.ProductID)
	if userID == "" || productID == "" || strings.TrimSpace(rec.Status) == "" {
		return EntitlementRecord{}, false, fmt.Errorf("invalid entitlement payload")
	}

	acquiredAt := rec.AcquiredAt.UTC()
	if rec.AcquiredAt.IsZero() {
		acquiredAt = time.Now().UTC()
	}

	rowID := uuid.NewString()
	out, err := scanEntitlementRow(r.pool.QueryRow(ctx, `
INSERT INTO entitlements (
	id,
	user_id,
	product_id,
	status,
	acquired_at,
	expires_at,
	platform,
	source_txn_id,
	receipt_data,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
ON CONFLICT (user_id, product_id) DO UPDATE
SET
	status = EXCLUDED.status,
	platform = EXCLUDED.platform,
	source_txn_id = EXCLUDED.source_txn_id,
	receipt_data = EXCLUDED.receipt_data,
	updated_at = NOW()
RETURNING
	id,
	user_id,
	product_id,
	status,
	acquired_at,
	expires_at,
	platform,
	source_txn_id,
	receipt_data,
	created_at,
	updated_at
`, rowID, userID, productID, rec.Status, acquiredAt, rec.ExpiresAt, rec.Platform, rec.SourceTxnID, rec.ReceiptData))
	if err != nil {
		return EntitlementRecord{}, false, fmt.Errorf("upsert entitlement: %w", err)
	}

	created := strings.EqualFold(out.ID, rowID)
	return out, created, nil
}

func (r *EntitlementRepo) GetByUserAndProduct(ctx context.Context, userID, productID string) (EntitlementRecord, error) {
	if r.pool == nil {
		return EntitlementRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" {
		return EntitlementRecord{}, fmt.Errorf("invalid entitlement lookup")
	}

	rec, err := scanEntitlementRow(r.pool.QueryRow(ctx, `
SELECT
	id,
	user_id,
	product_id,
	status,
	acquired_at,
	expires_at,
	platform,
	source_txn_id,
	receipt_data,
	created_at,
	updated_at
FROM entitlements
WHERE user_id = $1
  AND product_id = $2
`, userID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EntitlementRecord{}, ErrEntitlementNotFound
		}
		return EntitlementRecord{}, fmt.Errorf("get entitlement: %w", err)
	}

	return rec, nil
}

func (r *EntitlementRepo) ListByUser(ctx context.Context, userID string) ([]EntitlementRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	id,
	user_id,
	product_id,
	status,
	acquired_at,
	expires_at,
	platform,
	source_txn_id,
	receipt_data,
	created_at,
	updated_at
FROM entitlements
WHERE user_id = $1
ORDER BY acquired_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	defer rows.Close()

	var out []EntitlementRecord
	for rows.Next() {
		rec, err := scanEntitlementRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entitlement row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entitlements: %w", err)
	}

	return out, nil
}

// HasActive reports whether the user holds any active, unexpired entitlement
// at the given instant.
func (r *EntitlementRepo) HasActive(ctx context.Context, userID string, at time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("invalid user id")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM entitlements
WHERE user_id = $1
  AND status = 'active'
  AND (expires_at IS NULL OR expires_at > $2)
LIMIT 1
`, userID, at.UTC()).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active entitlement: %w", err)
	}

	return true, nil
}

// MarkLapsedExpired flips active rows whose expiry instant has passed.
// Lifetime entitlements carry a NULL expires_at and are never touched.
func (r *EntitlementRepo) MarkLapsedExpired(ctx context.Context, at time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE entitlements
SET status = 'expired', updated_at = NOW()
WHERE status = 'active'
  AND expires_at IS NOT NULL
  AND expires_at <= $1
`, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire lapsed entitlements: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanEntitlementRow(row pgx.Row) (EntitlementRecord, error) {
	var rec EntitlementRecord
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ProductID,
		&rec.Status,
		&rec.AcquiredAt,
		&rec.ExpiresAt,
		&rec.Platform,
		&rec.SourceTxnID,
		&rec.ReceiptData,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return EntitlementRecord{}, err
	}
	return rec, nil
}
