package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// request is either an event or, when flushed is non-nil, a barrier that is
// released once every event queued before it reached the sink.
type request struct {
	event   Event
	flushed chan struct{}
}

// Dispatcher forwards guard events to a sink on its own goroutine so a slow
// sink never delays a page transition. Flush lets the terminal teardown wait
// for the events of a page that is about to navigate away.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	queue     chan request
	done      chan struct{}
	stopped   chan struct{}
	dropped   atomic.Uint64
	delivered atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher returns nil when cfg is disabled; every method is nil-safe.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		queue:   make(chan request, cfg.BufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case r := <-d.queue:
			d.handle(r)
		case <-d.done:
			for {
				select {
				case r := <-d.queue:
					d.handle(r)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) handle(r request) {
	if r.flushed != nil {
		close(r.flushed)
		return
	}
	d.sink.Emit(context.Background(), r.event)
	d.delivered.Add(1)
}

// Emit queues event. With DropIfFull a full queue drops and counts the event;
// otherwise Emit blocks until there is room or ctx ends.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := request{event: event}
	if d.cfg.DropIfFull {
		select {
		case d.queue <- r:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- r:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Flush blocks until every event queued before the call has been handed to
// the sink, ctx ends, or the dispatcher stops. Barriers are never dropped.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	barrier := make(chan struct{})
	select {
	case d.queue <- request{flushed: barrier}:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return nil
	}

	select {
	case <-barrier:
		return nil
	case <-d.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// worker to exit.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		<-d.stopped
	})
}

// Dropped reports events discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered reports events handed to the sink.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
