package audit

import (
	"log/slog"
	"sync"
	"time"
)

type Event struct {
	AccountID  uint
	UserID     *uint
	Action     string
	Entity     string
	EntityID   *uint
	Metadata   any
	OccurredAt time.Time
}

// Writer persists one audit event.
type Writer interface {
	Write(ev Event) error
}

type Dispatcher struct {
	writer Writer
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}
	once   sync.Once
}

func NewDispatcher(writer Writer, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		writer: writer,
		logger: logger,
		queue:  make(chan Event, 100), // buffer seguro
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.writer.Write(ev); err != nil {
			d.logger.Error("audit write failed", "action", ev.Action, "err", err)
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case d.queue <- ev:
		// enviado
	default:
		// fila cheia → descartamos audit (nunca quebrar API)
		d.logger.Warn("audit queue full, dropping event", "action", ev.Action)
	}
}

// Close drains pending events. Dispatch must not be called afterwards.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	<-d.done
}
