package capture

import "sync"

// Emitter delivers one Result to one subscriber. Later subscriptions and
// later emissions are dropped.
type Emitter struct {
	mu      sync.Mutex
	fn      func(Result)
	emitted bool
}

// NewEmitter creates an emitter bound to fn
func NewEmitter(fn func(Result)) *Emitter {
	return &Emitter{fn: fn}
}

// Subscribe binds fn if no subscriber is bound yet
func (e *Emitter) Subscribe(fn func(Result)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fn != nil || e.emitted {
		return false
	}
	e.fn = fn
	return true
}

// Emit delivers r to the subscriber the first time it is called
func (e *Emitter) Emit(r Result) bool {
	e.mu.Lock()
	if e.emitted {
		e.mu.Unlock()
		return false
	}
	e.emitted = true
	fn := e.fn
	e.mu.Unlock()

	if fn != nil {
		fn(r)
	}
	return true
}

// Emitted reports whether the emitter already fired
func (e *Emitter) Emitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emitted
}
