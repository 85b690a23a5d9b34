package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher forwards audit events to a sink from a single background
// goroutine, decoupling emitters from sink latency. Every event that could
// not be delivered, for any reason, is counted in Dropped.
type Dispatcher struct {
	sink  Sink
	block bool

	mu     sync.RWMutex
	closed bool
	ch     chan Event

	drained chan struct{}
	dropped atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. A disabled config yields a
// nil dispatcher; the nil receiver is a no-op on every method.
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
		sink:    sink,
		block:   !cfg.DropIfFull,
		ch:      make(chan Event, cfg.BufferSize),
		drained: make(chan struct{}),
	}
	go d.deliver()

	return d
}

// deliver runs until the event channel is closed, then signals the drain.
// Closing the channel is the only shutdown signal, so everything buffered
// before Close is still handed to the sink.
func (d *Dispatcher) deliver() {
	defer close(d.drained)
	for event := range d.ch {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues an event, stamping ID, timestamp, and status if the emitter
// left them empty. Emit never returns an error: a full buffer either drops
// the event and counts it (DropIfFull) or blocks until the buffer accepts
// it or ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event.Stamp(time.Now().UTC())

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}

	if d.block {
		select {
		case d.ch <- event:
		case <-ctx.Done():
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	default:
		d.dropped.Add(1)
	}
}

// Close stops intake, delivers everything already buffered, and waits for
// the delivery goroutine to exit. Idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	<-d.drained
}

// Dropped returns how many events were discarded since construction.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
