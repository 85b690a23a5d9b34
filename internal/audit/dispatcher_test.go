package audit

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherDeliversAndStamps(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{
		EventType: "session_created",
		Category:  CategorySession,
		UserID:    "u-1",
	})

	select {
	case got := <-sink.Events():
		if got.ID == "" {
			t.Fatal("event not stamped with an ID")
		}
		if got.Timestamp.IsZero() {
			t.Fatal("event not stamped with a timestamp")
		}
		if got.Status != StatusSuccess {
			t.Fatalf("default status = %q, want success", got.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	block := make(chan struct{})
	sink := sinkFunc(func(ctx context.Context, _ Event) {
		<-block
	})

	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(block)
		d.Close()
	}()

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "session_created"})
	}

	if d.Dropped() == 0 {
		t.Fatal("saturated dispatcher must report drops")
	}
}

func TestDispatcherDisabled(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled config must yield a nil dispatcher")
	}
	// Nil receivers are no-ops.
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestDispatcherCloseFlushesBuffer(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "session_revoked"})
	}
	d.Close()

	delivered := 0
	for {
		select {
		case <-sink.Events():
			delivered++
		default:
			if delivered != 5 {
				t.Fatalf("delivered %d events after close, want 5", delivered)
			}
			return
		}
	}
}

func TestDispatcherEmitAfterCloseCountsDrop(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	d.Emit(context.Background(), Event{EventType: "session_created"})

	if d.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", d.Dropped())
	}
	select {
	case <-sink.Events():
		t.Fatal("event delivered after close")
	default:
	}
}

type sinkFunc func(ctx context.Context, event Event)

func (f sinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }
