package xtrigger

import (
	"sync"
	"time"

	"github.com/omeyang/xship/pkg/logship/xstream"
	"github.com/omeyang/xship/pkg/observability/xrotate"
)

const waitTimeout = 5 * time.Second

// fakeTarget 记录轮转请求，并允许测试直接发布事件。
type fakeTarget struct {
	mu       sync.Mutex
	nextID   int
	handlers map[xstream.EventKind]map[int]xstream.Handler
	triggers []xrotate.Trigger
	result   error
	rotated  chan xrotate.Trigger
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		handlers: make(map[xstream.EventKind]map[int]xstream.Handler),
		rotated:  make(chan xrotate.Trigger, 16),
	}
}

func (f *fakeTarget) Rotate(t xrotate.Trigger, done func(error)) {
	f.mu.Lock()
	f.triggers = append(f.triggers, t)
	err := f.result
	f.mu.Unlock()
	f.rotated <- t
	if done != nil {
		done(err)
	}
}

func (f *fakeTarget) On(kind xstream.EventKind, fn xstream.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers[kind] == nil {
		f.handlers[kind] = make(map[int]xstream.Handler)
	}
	f.nextID++
	id := f.nextID
	f.handlers[kind][id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[kind], id)
	}
}

func (f *fakeTarget) emit(e xstream.Event) {
	f.mu.Lock()
	var fns []xstream.Handler
	for _, fn := range f.handlers[e.Kind] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

func (f *fakeTarget) subscribers(kind xstream.EventKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers[kind])
}

func (f *fakeTarget) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggers)
}

func (f *fakeTarget) setResult(err error) {
	f.mu.Lock()
	f.result = err
	f.mu.Unlock()
}
