package provider

import (
	"sync"
)

// emitter forwards wallet events to registered handlers in registration
// order. Handlers run on the watcher goroutine.
type emitter struct {
	lk       sync.Mutex
	nextID   int
	order    []int
	handlers map[int]func(interface{})
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[int]func(interface{}))}
}

func (e *emitter) subscribe(h func(interface{})) func() {
	e.lk.Lock()
	defer e.lk.Unlock()
	id := e.nextID
	e.nextID++
	e.order = append(e.order, id)
	e.handlers[id] = h

	return func() {
		e.lk.Lock()
		defer e.lk.Unlock()
		delete(e.handlers, id)
	}
}

func (e *emitter) emit(v interface{}) {
	e.lk.Lock()
	hs := make([]func(interface{}), 0, len(e.handlers))
	for _, id := range e.order {
		if h, ok := e.handlers[id]; ok {
			hs = append(hs, h)
		}
	}
	e.lk.Unlock()

	for _, h := range hs {
		h(v)
	}
}
