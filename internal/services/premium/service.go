package premium

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkaiserui/VagusNerveReset/internal/domain/enums"
	"github.com/pkaiserui/VagusNerveReset/internal/domain/model"
	pgrepo "github.com/pkaiserui/VagusNerveReset/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type EntitlementStore interface {
	HasActive(ctx context.Context, userID string, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]pgrepo.EntitlementRecord, error)
}

type UserStore interface {
	GetCreatedAt(ctx context.Context, userID string) (time.Time, error)
}

type Config struct {
	TrialDuration time.Duration
}

// Service answers "is this user entitled": a persisted active entitlement
// wins, otherwise a trial window anchored at account creation applies. The
// trial grants access without ever writing an entitlement row.
type Service struct {
	entitlements EntitlementStore
	users        UserStore
	cfg          Config
	now          func() time.Time
}

type Status struct {
	IsPremium          bool
	IsTrial            bool
	TrialDaysRemaining *int
	TrialEndsAt        *time.Time
}

func NewService(entitlements EntitlementStore, users UserStore, cfg Config) *Service {
	if cfg.TrialDuration <= 0 {
		cfg.TrialDuration = 14 * 24 * time.Hour
	}

	return &Service{
		entitlements: entitlements,
		users:        users,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	if strings.TrimSpace(userID) == "" {
		return Status{}, ErrValidation
	}
	if s.entitlements == nil {
		return Status{}, fmt.Errorf("entitlement store is nil")
	}

	now := s.now().UTC()

	active, err := s.entitlements.HasActive(ctx, userID, now)
	if err != nil {
		return Status{}, err
	}
	if active {
		return Status{IsPremium: true}, nil
	}

	if s.users == nil {
		return Status{}, nil
	}

	createdAt, err := s.users.GetCreatedAt(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Status{}, nil
		}
		return Status{}, err
	}

	trialEnd := createdAt.Add(s.cfg.TrialDuration)
	if now.After(trialEnd) {
		return Status{}, nil
	}

	daysRemaining := int(math.Ceil(trialEnd.Sub(now).Hours() / 24))
	return Status{
		IsPremium:          true,
		IsTrial:            true,
		TrialDaysRemaining: &daysRemaining,
		TrialEndsAt:        &trialEnd,
	}, nil
}

func (s *Service) Entitlements(ctx context.Context, userID string) ([]model.Entitlement, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrValidation
	}
	if s.entitlements == nil {
		return nil, fmt.Errorf("entitlement store is nil")
	}

	records, err := s.entitlements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.Entitlement, 0, len(records))
	for _, rec := range records {
		out = append(out, toModel(rec))
	}
	return out, nil
}

func toModel(rec pgrepo.EntitlementRecord) model.Entitlement {
	return model.Entitlement{
		UserID:      rec.UserID,
		ProductID:   rec.ProductID,
		Status:      enums.EntitlementStatus(rec.Status),
		Platform:    enums.Platform(rec.Platform),
		AcquiredAt:  rec.AcquiredAt,
		ExpiresAt:   rec.ExpiresAt,
		SourceTxnID: rec.SourceTxnID,
	}
}
