package agent

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vswrite/agent-core/pkg/models"
)

// EventSink receives AgentEvents emitted by a run. Implementations must be
// safe to call from the run's single emitting goroutine concurrently with
// other runs' sinks; a sink is never shared across runs.
type EventSink interface {
	Emit(ctx context.Context, e models.AgentEvent)
}

// ChanSink sends events to a buffered channel, dropping events rather than
// blocking the run goroutine when the channel is full.
type ChanSink struct {
	ch chan<- models.AgentEvent
}

// NewChanSink creates a sink that sends to ch. The channel should be
// buffered; an unbuffered channel will drop every event under this sink's
// non-blocking Emit.
func NewChanSink(ch chan<- models.AgentEvent) *ChanSink {
	return &ChanSink{ch: ch}
}

func (s *ChanSink) Emit(ctx context.Context, e models.AgentEvent) {
	select {
	case s.ch <- e:
	case <-ctx.Done():
	default:
	}
}

// MultiSink fans out to several sinks in registration order. A nil entry is
// filtered out at construction.
type MultiSink struct {
	sinks []EventSink
}

func NewMultiSink(sinks ...EventSink) *MultiSink {
	filtered := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &MultiSink{sinks: filtered}
}

func (s *MultiSink) Emit(ctx context.Context, e models.AgentEvent) {
	for _, sink := range s.sinks {
		sink.Emit(ctx, e)
	}
}

// NopSink discards every event. Used as the default when a caller omits a
// sink, so the loop never has to nil-check.
type NopSink struct{}

func (NopSink) Emit(context.Context, models.AgentEvent) {}

// RecordingSink appends every emitted event to an in-memory slice. Only the
// run goroutine calls Emit on a given instance, so no locking is needed.
// Used by tests and by introspection that wants a run's full event history.
type RecordingSink struct {
	Events []models.AgentEvent
}

func (s *RecordingSink) Emit(_ context.Context, e models.AgentEvent) {
	s.Events = append(s.Events, e)
}

// eventEmitter stamps each AgentEvent with a monotonically increasing
// Sequence and the run's identity before handing it to the configured sink.
// Grounded on the teacher's EventEmitter atomic sequence counter.
type eventEmitter struct {
	runID    string
	sequence uint64
	sink     EventSink
}

func newEventEmitter(runID string, sink EventSink) *eventEmitter {
	if sink == nil {
		sink = NopSink{}
	}
	return &eventEmitter{runID: runID, sink: sink}
}

func (e *eventEmitter) emit(ctx context.Context, typ models.AgentEventType, set func(*models.AgentEvent)) {
	ev := models.AgentEvent{
		Version:  1,
		Type:     typ,
		Time:     timeNow(),
		Sequence: atomic.AddUint64(&e.sequence, 1),
		RunID:    e.runID,
	}
	if set != nil {
		set(&ev)
	}
	e.sink.Emit(ctx, ev)
}

// timeNow is a seam so event timestamps can be replaced in tests without
// reaching for a wall-clock package.
var timeNow = func() time.Time { return time.Now() }
