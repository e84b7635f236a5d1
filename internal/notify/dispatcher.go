package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// AllSinks marks a failure that must be retried on every sink.
const AllSinks = "*"

var errQueueFull = errors.New("notification queue full")

// Dispatcher delivers events asynchronously. Dispatch never blocks and
// never fails the caller; undeliverable events go to the FailureStore.
type Dispatcher struct {
	sinks     []Sink
	failures  FailureStore
	logger    *slog.Logger
	onFailure func(sink string)
	timeout   time.Duration

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

type Option func(*Dispatcher)

// WithFailureHook is called once per failed sink delivery.
func WithFailureHook(fn func(sink string)) Option {
	return func(d *Dispatcher) { d.onFailure = fn }
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) { d.queue = make(chan Event, n) }
}

func NewDispatcher(sinks []Sink, failures FailureStore, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sinks:     sinks,
		failures:  failures,
		logger:    logger,
		onFailure: func(string) {},
		timeout:   5 * time.Second,
		queue:     make(chan Event, 256),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := s.Send(ctx, ev)
		cancel()
		if err != nil {
			d.fail(s.Name(), ev, err)
		}
	}
}

func (d *Dispatcher) fail(sink string, ev Event, cause error) {
	d.onFailure(sink)
	d.logger.Warn("notification delivery failed",
		"sink", sink,
		"event", ev.Type,
		"appointment_id", ev.AppointmentID,
		"err", cause,
	)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.failures.Record(ctx, sink, ev, cause); err != nil {
		d.logger.Error("failed to record notification failure", "sink", sink, "err", err)
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	select {
	case d.queue <- ev:
	default:
		d.fail(AllSinks, ev, errQueueFull)
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	<-d.done
}

// Sink looks up a configured sink by name.
func (d *Dispatcher) Sink(name string) (Sink, bool) {
	for _, s := range d.sinks {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

func (d *Dispatcher) Sinks() []Sink {
	return d.sinks
}
