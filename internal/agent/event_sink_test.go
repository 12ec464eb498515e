package agent

import (
	"context"
	"testing"

	"github.com/vswrite/agent-core/pkg/models"
)

func TestChanSinkDeliversWithinBufferCapacity(t *testing.T) {
	ch := make(chan models.AgentEvent, 1)
	sink := NewChanSink(ch)
	sink.Emit(context.Background(), models.AgentEvent{Type: models.EventStart})

	select {
	case e := <-ch:
		if e.Type != models.EventStart {
			t.Fatalf("unexpected event: %+v", e)
		}
	default:
		t.Fatal("expected event to be delivered")
	}
}

func TestChanSinkDropsWhenFull(t *testing.T) {
	ch := make(chan models.AgentEvent, 1)
	sink := NewChanSink(ch)
	sink.Emit(context.Background(), models.AgentEvent{Type: models.EventStart})
	sink.Emit(context.Background(), models.AgentEvent{Type: models.EventComplete})

	got := <-ch
	if got.Type != models.EventStart {
		t.Fatalf("expected first event preserved, got %+v", got)
	}
	select {
	case extra := <-ch:
		t.Fatalf("expected second event to be dropped, got %+v", extra)
	default:
	}
}

func TestMultiSinkFansOutToEverySink(t *testing.T) {
	a, b := &RecordingSink{}, &RecordingSink{}
	multi := NewMultiSink(a, nil, b)
	multi.Emit(context.Background(), models.AgentEvent{Type: models.EventStart})

	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Fatalf("expected both sinks to receive the event: %+v %+v", a.Events, b.Events)
	}
}

func TestEventEmitterSequenceIsMonotonic(t *testing.T) {
	sink := &RecordingSink{}
	emitter := newEventEmitter("run-1", sink)

	emitter.emit(context.Background(), models.EventStart, nil)
	emitter.emit(context.Background(), models.EventComplete, nil)

	if len(sink.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.Events))
	}
	if sink.Events[0].Sequence >= sink.Events[1].Sequence {
		t.Fatalf("expected increasing sequence numbers, got %d then %d", sink.Events[0].Sequence, sink.Events[1].Sequence)
	}
	if sink.Events[0].RunID != "run-1" {
		t.Fatalf("expected RunID to be stamped, got %q", sink.Events[0].RunID)
	}
}
