package sentinel

import (
	"context"
	"time"
)

// sweeper drives SweepExpiredSessions on a fixed interval. Built by the
// Builder when sweeping is enabled and stopped by Engine.Close.
type sweeper struct {
	engine   *Engine
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

func newSweeper(engine *Engine, interval time.Duration) *sweeper {
	s := &sweeper{
		engine:   engine,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *sweeper) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Sweep errors are reflected in metrics; the next tick retries.
			_, _ = s.engine.SweepExpiredSessions(context.Background())
		case <-s.done:
			return
		}
	}
}

func (s *sweeper) stop() {
	if s == nil {
		return
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
}
