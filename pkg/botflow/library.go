package botflow

import "sync"

// Library is a thread-safe collection of flows keyed by unique name,
// the engine-side counterpart of an authoring backend's saved bots.
// It stores and hands out clones, so neither callers nor running
// sessions can mutate a registered flow in place.
type Library struct {
	mu    sync.RWMutex
	flows map[string]*Flow
}

// NewLibrary creates an empty flow library.
func NewLibrary() *Library {
	return &Library{
		flows: make(map[string]*Flow),
	}
}

// Register adds or replaces the flow stored under name.
// Sessions already running over the previous version are unaffected.
func (l *Library) Register(name string, f *Flow) error {
	if f == nil {
		return ErrNoFlow
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flows[name] = f.Clone()
	return nil
}

// Get returns a clone of the flow stored under name.
func (l *Library) Get(name string) (*Flow, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.flows[name]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// Has reports whether a flow is stored under name.
func (l *Library) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.flows[name]
	return ok
}

// Names returns the registered flow names.
// The order is not guaranteed.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.flows))
	for name := range l.flows {
		names = append(names, name)
	}
	return names
}

// Remove deletes the flow stored under name.
func (l *Library) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.flows, name)
}

// Len returns the number of registered flows.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.flows)
}
