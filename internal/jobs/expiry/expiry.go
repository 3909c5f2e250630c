package expiry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type lapsedExpirer interface {
	MarkLapsedExpired(ctx context.Context, at time.Time) (int64, error)
}

// Job sweeps entitlements whose expiry instant has passed and marks them
// expired. Premium checks already exclude lapsed rows at read time; the
// sweep keeps the persisted status honest for listings and audits.
type Job struct {
	entitlements lapsedExpirer
	now          func() time.Time
	logger       *zap.Logger
}

func New(entitlements lapsedExpirer, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		entitlements: entitlements,
		now:          time.Now,
		logger:       logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.entitlements == nil {
		return nil
	}

	rows, err := j.entitlements.MarkLapsedExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("mark lapsed entitlements expired: %w", err)
	}
	if rows > 0 {
		j.logger.Info("expired lapsed entitlements", zap.Int64("rows", rows))
	}

	return nil
}
