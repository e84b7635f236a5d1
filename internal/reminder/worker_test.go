package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendahq/backoffice/internal/metrics"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/notify"
)

// memoryStore mimics the SQL claim: due when start-offset <= now < start.
type memoryStore struct {
	mu      sync.Mutex
	offset  time.Duration
	items   []models.Appointment
	failNow bool
}

func (s *memoryStore) ClaimDue(ctx context.Context, now time.Time, limit int, fn func(models.Appointment) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNow {
		return 0, errors.New("db down")
	}

	n := 0
	for i := range s.items {
		ap := &s.items[i]
		if n == limit {
			break
		}
		if ap.ReminderSentAt != nil || !ap.StartTime.After(now) || ap.StartTime.Add(-s.offset).After(now) {
			continue
		}
		if err := fn(*ap); err != nil {
			return 0, err
		}
		sent := now
		ap.ReminderSentAt = &sent
		n++
	}
	return n, nil
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Dispatch(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestProcessBatch_AtMostOnce(t *testing.T) {
	now := time.Date(2025, 12, 22, 8, 0, 0, 0, time.UTC)
	store := &memoryStore{
		offset: time.Hour,
		items: []models.Appointment{
			{ID: 1, AccountID: 7, ProfessionalID: 3, StartTime: now.Add(30 * time.Minute), Status: "pending"},
			{ID: 2, ProfessionalID: 3, StartTime: now.Add(2 * time.Hour), Status: "pending"},
			{ID: 3, ProfessionalID: 3, StartTime: now.Add(-time.Minute), Status: "confirmed"},
			{ID: 4, ProfessionalID: 3, StartTime: now.Add(time.Hour), Status: "confirmed"},
		},
	}
	rec := &recorder{}
	m := metrics.New()

	w := NewWorker(store, rec, m, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{BatchSize: 1})
	w.now = func() time.Time { return now }

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, rec.events, 2)
	assert.Equal(t, notify.EventAppointmentReminder, rec.events[0].Type)
	assert.Equal(t, uint(1), rec.events[0].AppointmentID)
	assert.Equal(t, uint(7), rec.events[0].AccountID)
	assert.Equal(t, uint(4), rec.events[1].AppointmentID)

	n, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, rec.events, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RemindersSent))
}

func TestProcessBatch_StoreError(t *testing.T) {
	store := &memoryStore{failNow: true}
	w := NewWorker(store, &recorder{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{})

	_, err := w.ProcessBatch(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := NewWorker(&memoryStore{}, &recorder{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
