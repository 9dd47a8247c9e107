package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbox_records_swept_total",
		Help: "The total number of inbox records deleted by the retention sweeper",
	})
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inbox_sweep_errors_total",
		Help: "The total number of failed sweep passes",
	})
)

type InboxPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error)
}

type SweeperConfig struct {
	Retention time.Duration
	Interval  time.Duration
	Batch     int
}

// InboxSweeper deletes idempotency records older than the retention window.
// A message redelivered after its record was swept is processed again.
type InboxSweeper struct {
	pruner InboxPruner
	cfg    SweeperConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewInboxSweeper(pruner InboxPruner, cfg SweeperConfig, logger *slog.Logger) (*InboxSweeper, error) {
	if cfg.Retention <= 0 {
		return nil, errors.New("worker: retention must be positive")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InboxSweeper{pruner: pruner, cfg: cfg, logger: logger, now: time.Now}, nil
}

func (s *InboxSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("inbox sweeper started", "retention", s.cfg.Retention.String(), "interval", s.cfg.Interval.String())

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			sweepErrors.Inc()
			s.logger.Error("inbox sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep deletes expired records in batches until a batch comes back short.
func (s *InboxSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.Retention)

	var total int64
	for {
		n, err := s.pruner.DeleteOlderThan(ctx, cutoff, s.cfg.Batch)
		if err != nil {
			return total, fmt.Errorf("sweep inbox: %w", err)
		}
		total += n
		recordsSwept.Add(float64(n))

		if n < int64(s.cfg.Batch) || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		s.logger.Info("inbox records swept", "count", total, "cutoff", cutoff)
	}
	return total, nil
}
