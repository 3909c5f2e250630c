package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgrepo "github.com/pkaiserui/VagusNerveReset/internal/repo/postgres"
)

const defaultMaxBatchSize = 100

var ErrValidation = errors.New("validation error")

type Store interface {
	InsertBatch(ctx context.Context, userID *string, events []pgrepo.EventWriteRecord) error
}

type Config struct {
	MaxBatchSize int
}

type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

type BatchEvent struct {
	Name  string
	TS    int64
	Props map[string]any
}

func NewService(store Store, cfg Config) *Service {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}

	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (s *Service) IngestBatch(ctx context.Context, userID *string, events []BatchEvent) error {
	if s.store == nil {
		return fmt.Errorf("analytics store is nil")
	}
	if len(events) == 0 || len(events) > s.cfg.MaxBatchSize {
		return ErrValidation
	}

	now := s.now().UTC()
	rows := make([]pgrepo.EventWriteRecord, 0, len(events))
	for _, event := range events {
		name := strings.TrimSpace(event.Name)
		if name == "" {
			return ErrValidation
		}

		rows = append(rows, pgrepo.EventWriteRecord{
			Name:       name,
			OccurredAt: parseTS(event.TS, now),
			Props:      cloneProps(event.Props),
		})
	}

	if err := s.store.InsertBatch(ctx, userID, rows); err != nil {
		return fmt.Errorf("insert event batch: %w", err)
	}

	return nil
}

func parseTS(ms int64, fallback time.Time) time.Time {
	if ms <= 0 {
		return fallback
	}
	return time.UnixMilli(ms).UTC()
}

func cloneProps(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
