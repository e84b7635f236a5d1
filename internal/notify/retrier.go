package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agendahq/backoffice/internal/models"
)

// RetryStore is the queue side of the failed-notification table.
type RetryStore interface {
	Due(ctx context.Context, now time.Time, limit int) ([]models.FailedNotification, error)
	MarkSent(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, attempts int, next time.Time, lastErr string, dead bool) error
}

type RetrierConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	MaxBackoff  time.Duration
}

// Retrier re-sends recorded failures with exponential backoff until
// MaxAttempts, after which the row is marked dead.
type Retrier struct {
	store  RetryStore
	sinks  []Sink
	logger *slog.Logger
	cfg    RetrierConfig
	now    func() time.Time
}

func NewRetrier(store RetryStore, sinks []Sink, logger *slog.Logger, cfg RetrierConfig) *Retrier {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Hour
	}
	return &Retrier{
		store:  store,
		sinks:  sinks,
		logger: logger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *Retrier) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.ProcessBatch(ctx); err != nil {
				r.logger.Error("notification retry batch failed", "err", err)
			}
		}
	}
}

func (r *Retrier) ProcessBatch(ctx context.Context) error {
	due, err := r.store.Due(ctx, r.now(), r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, row := range due {
		sendErr := r.resend(ctx, row)
		if sendErr == nil {
			if err := r.store.MarkSent(ctx, row.ID); err != nil {
				return err
			}
			continue
		}

		attempts := row.Attempts + 1
		dead := attempts >= r.cfg.MaxAttempts
		next := r.now().Add(r.backoff(attempts))
		if err := r.store.MarkFailed(ctx, row.ID, attempts, next, sendErr.Error(), dead); err != nil {
			return err
		}
		if dead {
			r.logger.Warn("notification dropped after max attempts",
				"id", row.ID, "sink", row.Sink, "event", row.EventType, "attempts", attempts)
		}
	}
	return nil
}

func (r *Retrier) resend(ctx context.Context, row models.FailedNotification) error {
	var ev Event
	if err := json.Unmarshal([]byte(row.Payload), &ev); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	var errs []error
	matched := false
	for _, s := range r.sinks {
		if row.Sink != AllSinks && row.Sink != s.Name() {
			continue
		}
		matched = true
		if err := s.Send(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if !matched {
		return fmt.Errorf("sink %q is not configured", row.Sink)
	}
	return errors.Join(errs...)
}

func (r *Retrier) backoff(attempts int) time.Duration {
	d := r.cfg.Interval
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= r.cfg.MaxBackoff {
			return r.cfg.MaxBackoff
		}
	}
	return d
}
