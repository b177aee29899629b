package xstream

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xship/pkg/observability/xrotate"
)

// EventKind 是事件类型。
type EventKind string

// 事件类型。
const (
	EventError          EventKind = "error"
	EventNewFile        EventKind = "newfile"
	EventLosingData     EventKind = "losingdata"
	EventCaughtUp       EventKind = "caughtup"
	EventShutdown       EventKind = "shutdown"
	EventLogWrite       EventKind = "logwrite"
	EventPerfWriteBatch EventKind = "perf-writebatch"
	EventPerfQueued     EventKind = "perf-queued"
	EventPerfRotation   EventKind = "perf-rotation"
)

// Kinds 返回所有事件类型。
func Kinds() []EventKind {
	return []EventKind{
		EventError, EventNewFile, EventLosingData, EventCaughtUp, EventShutdown,
		EventLogWrite, EventPerfWriteBatch, EventPerfQueued, EventPerfRotation,
	}
}

// Event 是发布给订阅者的事件。各字段是否有效取决于 Kind：
//
//	error            Err
//	newfile          File
//	losingdata       QueueLen
//	shutdown         Err（关闭过程中的错误，可能为 nil）
//	logwrite         File、Bytes
//	perf-writebatch  File、Bytes、Count、QueueLen、Duration、Err
//	perf-queued      QueueLen
//	perf-rotation    Trigger、Duration、Err
type Event struct {
	Kind     EventKind
	StreamID string
	Err      error
	File     xrotate.FileInfo
	Bytes    int
	Count    int
	QueueLen int
	Duration time.Duration
	Trigger  xrotate.Trigger
}

// Handler 处理事件。
type Handler func(Event)

type subscriber struct {
	id uint64
	fn Handler
}

// bus 是按事件类型分发的同步订阅表。
type bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[EventKind][]subscriber
	counts sync.Map // EventKind → *atomic.Int32
}

func newBus() *bus {
	return &bus{subs: make(map[EventKind][]subscriber)}
}

func (b *bus) counter(kind EventKind) *atomic.Int32 {
	c, _ := b.counts.LoadOrStore(kind, new(atomic.Int32))
	return c.(*atomic.Int32)
}

// on 注册处理函数，返回取消函数（幂等）。
func (b *bus) on(kind EventKind, fn Handler) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscriber{id: id, fn: fn})
	b.mu.Unlock()
	b.counter(kind).Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			subs := b.subs[kind]
			for i, s := range subs {
				if s.id == id {
					b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
			b.counter(kind).Add(-1)
		})
	}
}

// has 报告 kind 是否有订阅者，用于跳过事件构造。
func (b *bus) has(kind EventKind) bool {
	return b.counter(kind).Load() > 0
}

// emit 同步调用所有订阅者，单个处理函数的 panic 不影响其他订阅者。
func (b *bus) emit(e Event) {
	if !b.has(e.Kind) {
		return
	}
	b.mu.RLock()
	subs := b.subs[e.Kind]
	b.mu.RUnlock()
	for _, s := range subs {
		func() {
			defer func() { _ = recover() }()
			s.fn(e)
		}()
	}
}
