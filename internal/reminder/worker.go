package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agendahq/backoffice/internal/metrics"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/notify"
)

// Store claims appointments whose reminder window has opened.
type Store interface {
	// ClaimDue marks up to limit due appointments as reminded and calls fn for
	// each inside the same transaction. An error from fn rolls the batch back.
	ClaimDue(ctx context.Context, now time.Time, limit int, fn func(ap models.Appointment) error) (int, error)
}

type Notifier interface {
	Dispatch(ev notify.Event)
}

type Config struct {
	Interval  time.Duration
	BatchSize int
}

type Worker struct {
	store     Store
	notify    Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewWorker(store Store, notifier Notifier, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Worker{
		store:     store,
		notify:    notifier,
		metrics:   m,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.ProcessBatch(ctx)
			if err != nil {
				w.logger.Error("reminder batch failed", "err", err)
				continue
			}
			if n > 0 {
				w.logger.Info("reminders enqueued", "count", n)
			}
		}
	}
}

// ProcessBatch drains due reminders until a batch comes back short.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.store.ClaimDue(ctx, w.now().UTC(), w.batchSize, func(ap models.Appointment) error {
			w.notify.Dispatch(notify.Event{
				Type:           notify.EventAppointmentReminder,
				AccountID:      ap.AccountID,
				ProfessionalID: ap.ProfessionalID,
				AppointmentID:  ap.ID,
				Title:          ap.Title,
				Status:         ap.Status,
				StartTime:      ap.StartTime,
			})
			w.metrics.ReminderSent()
			return nil
		})
		total += n
		if err != nil {
			return total, fmt.Errorf("claim due reminders: %w", err)
		}
		if n < w.batchSize || ctx.Err() != nil {
			return total, nil
		}
	}
}
