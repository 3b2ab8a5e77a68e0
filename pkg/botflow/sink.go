package botflow

import "sync"

// Sink receives the ordered, append-only stream of turns from a session.
// Posts happen synchronously on the goroutine resolving the user action,
// so implementations should return quickly and must not call back into
// the session.
type Sink interface {
	Post(t Turn)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(t Turn)

// Post implements Sink.
func (f SinkFunc) Post(t Turn) { f(t) }

// Recorder is a Sink that keeps the full transcript in memory.
type Recorder struct {
	mu    sync.Mutex
	turns []Turn
}

// NewRecorder creates an empty transcript recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Post implements Sink.
func (r *Recorder) Post(t Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, t)
}

// Turns returns a copy of the recorded transcript in emission order.
func (r *Recorder) Turns() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Turn(nil), r.turns...)
}

// Reset discards the recorded transcript.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = nil
}

// Len returns the number of recorded turns.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns)
}

// Broadcaster fans a turn stream out to multiple sinks, e.g. a builder
// preview pane and a deployed widget rendering the same run. Delivery
// order follows attachment order and is deterministic.
type Broadcaster struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewBroadcaster creates a broadcaster over the given sinks.
func NewBroadcaster(sinks ...Sink) *Broadcaster {
	return &Broadcaster{sinks: sinks}
}

// Attach adds a sink to the fan-out set.
func (b *Broadcaster) Attach(s Sink) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Post implements Sink by delivering the turn to every attached sink.
func (b *Broadcaster) Post(t Turn) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.sinks {
		s.Post(t)
	}
}
