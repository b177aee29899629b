package xqueue

import (
	"fmt"
	"sync"
	"time"
)

// Entry 是一个待写入的条目。Done 在条目写入、被淘汰或被丢弃时调用一次，可以为 nil。
// 回滚重试的条目在最终结果确定前不会调用 Done。
type Entry struct {
	Data []byte
	Done func(error)
}

// BatchWriter 写入一批条目，返回最后一个成功写入的下标（-1 表示一个都没写入）。
// last 之后的条目会被放回队首。last 小于 len(batch)-1 且 err 为 nil 视为 [ErrShortWrite]。
type BatchWriter func(batch []Entry) (last int, err error)

// Scheduler 在下一个调度机会异步执行任务，不得同步调用 fn。
// Go 返回 false 表示调度器已停止；After 在 d 之后投递 fn，返回的 Timer 用于取消。
type Scheduler interface {
	Go(fn func()) bool
	After(d time.Duration, fn func()) *time.Timer
}

// Stats 是队列的累计计数。
type Stats struct {
	Pushed     uint64
	Written    uint64
	Evicted    uint64
	RolledBack uint64
	Failed     uint64
	Discarded  uint64
}

// Queue 是有界写队列。所有方法并发安全。
type Queue struct {
	opts   options
	sched  Scheduler
	writer BatchWriter

	mu      sync.Mutex
	items   []Entry
	head    int
	pinned  int // 队首回滚条目数，不参与淘汰
	joiners []func()

	paused     bool
	scheduled  bool
	inflight   bool
	overloaded bool
	closed     bool
	closeErr   error

	delay time.Duration
	timer *time.Timer

	stats Stats
}

// New 创建暂停状态的队列。
func New(sched Scheduler, writer BatchWriter, opts ...Option) *Queue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue{
		opts:   o,
		sched:  sched,
		writer: writer,
		paused: true,
	}
}

// Push 入队一个条目，返回入队后的队列长度。从不阻塞。
// 队列关闭后条目立即以关闭原因完成，返回 0。
func (q *Queue) Push(data []byte, done func(error)) int {
	e := Entry{Data: data, Done: done}

	q.mu.Lock()
	if q.closed {
		err := q.closeErr
		q.mu.Unlock()
		complete(e, err)
		return 0
	}
	q.stats.Pushed++

	var (
		evicted Entry
		drop    bool
		losing  bool
	)
	if q.opts.capacity > 0 && q.lenLocked() >= q.opts.capacity {
		drop = true
		if q.opts.eviction == EvictOldest && q.lenLocked() > q.pinned {
			evicted = q.evictOldestLocked()
			q.items = append(q.items, e)
		} else {
			evicted = e
		}
		q.stats.Evicted++
		if !q.overloaded {
			q.overloaded = true
			losing = true
		}
	} else {
		q.items = append(q.items, e)
	}
	n := q.lenLocked()
	kick := q.kickLocked()
	q.mu.Unlock()

	if drop {
		complete(evicted, ErrEvicted)
	}
	if losing && q.opts.onLosingData != nil {
		q.opts.onLosingData(n)
	}
	if kick {
		q.post()
	}
	return n
}

// Pause 停止排空。已投递的排空任务在执行时发现暂停会直接返回。
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume 恢复排空。若有等待中的退避重试，立即改为下一个调度机会执行。
func (q *Queue) Resume() {
	q.mu.Lock()
	if !q.paused {
		q.mu.Unlock()
		return
	}
	q.paused = false
	if q.timer != nil && q.timer.Stop() {
		q.timer = nil
		q.scheduled = false
	}
	kick := q.kickLocked()
	q.mu.Unlock()

	if kick {
		q.post()
	}
}

// Paused 报告队列是否暂停。
func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Len 返回排队中的条目数（不含正在写入的批次）。
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Stats 返回累计计数的快照。
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Join 在队列为空且没有批次在写时调用 fn。
// 暂停的队列要等恢复并排空后才会调用。调用方应保证 Join 期间不再 Push。
func (q *Queue) Join(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	if q.lenLocked() == 0 && !q.inflight {
		q.mu.Unlock()
		fn()
		return
	}
	q.joiners = append(q.joiners, fn)
	kick := q.kickLocked()
	q.mu.Unlock()

	if kick {
		q.post()
	}
}

// Discard 以 err 完成所有排队条目并返回丢弃数量。等待中的 Join 随之完成。
// 正在写入的批次不受影响。
func (q *Queue) Discard(err error) int {
	q.mu.Lock()
	dropped, joiners := q.discardLocked()
	q.mu.Unlock()

	for _, e := range dropped {
		complete(e, err)
	}
	runAll(joiners)
	return len(dropped)
}

// Close 丢弃所有排队条目并拒绝后续入队，条目和后续入队均以 err 完成。
// err 为 nil 时使用 [ErrClosed]。正在写入的批次中失败的条目同样以 err 完成，不再放回。
func (q *Queue) Close(err error) int {
	if err == nil {
		err = ErrClosed
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	q.closed = true
	q.closeErr = err
	q.paused = true
	dropped, joiners := q.discardLocked()
	q.mu.Unlock()

	for _, e := range dropped {
		complete(e, err)
	}
	runAll(joiners)
	return len(dropped)
}

func (q *Queue) discardLocked() ([]Entry, []func()) {
	dropped := make([]Entry, q.lenLocked())
	copy(dropped, q.items[q.head:])
	q.items = nil
	q.head = 0
	q.pinned = 0
	q.overloaded = false
	q.stats.Discarded += uint64(len(dropped))
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
		q.scheduled = false
	}

	var joiners []func()
	if !q.inflight {
		joiners = q.joiners
		q.joiners = nil
	}
	return dropped, joiners
}

// tick 执行一次排空：取一批、写入、处理结果，并在需要时投递下一次。
func (q *Queue) tick() {
	q.mu.Lock()
	q.scheduled = false
	q.timer = nil
	if q.paused || q.inflight || q.lenLocked() == 0 {
		var joiners []func()
		if q.lenLocked() == 0 && !q.inflight {
			joiners = q.joiners
			q.joiners = nil
		}
		q.mu.Unlock()
		runAll(joiners)
		return
	}
	batch := q.takeLocked()
	q.inflight = true
	q.mu.Unlock()

	last, err := q.write(batch)
	written, failed := batch[:last+1], batch[last+1:]

	q.mu.Lock()
	q.inflight = false
	q.stats.Written += uint64(len(written))

	var rejected []Entry
	if len(failed) > 0 {
		q.stats.Failed++
		if q.closed {
			rejected = failed
		} else {
			q.unshiftLocked(failed)
			q.stats.RolledBack += uint64(len(failed))
		}
	}

	caughtUp := false
	var joiners []func()
	if q.lenLocked() == 0 {
		if q.overloaded {
			q.overloaded = false
			caughtUp = true
		}
		joiners = q.joiners
		q.joiners = nil
	}

	var (
		now   bool
		delay time.Duration
	)
	if err != nil {
		delay = q.nextDelayLocked()
	} else {
		q.delay = 0
	}
	if !q.paused && q.lenLocked() > 0 && !q.scheduled {
		q.scheduled = true
		if delay > 0 {
			q.timer = q.sched.After(delay, q.tick)
		} else {
			now = true
		}
	}
	closeErr := q.closeErr
	q.mu.Unlock()

	for _, e := range written {
		complete(e, nil)
	}
	for _, e := range rejected {
		complete(e, closeErr)
	}
	if err != nil && q.opts.onError != nil {
		q.opts.onError(err)
	}
	if caughtUp && q.opts.onCaughtUp != nil {
		q.opts.onCaughtUp()
	}
	runAll(joiners)
	if now {
		q.post()
	}
}

// write 调用写入器并规范化结果。
func (q *Queue) write(batch []Entry) (last int, err error) {
	defer func() {
		if r := recover(); r != nil {
			last, err = -1, fmt.Errorf("%w: %v", ErrWriterPanic, r)
		}
	}()
	last, err = q.writer(batch)
	last = max(-1, min(last, len(batch)-1))
	if err == nil && last < len(batch)-1 {
		err = ErrShortWrite
	}
	return last, err
}

// post 把一次排空投递给调度器。
func (q *Queue) post() {
	if q.sched.Go(q.tick) {
		return
	}
	q.mu.Lock()
	q.scheduled = false
	q.mu.Unlock()
}

// kickLocked 判断是否需要投递排空，需要时标记 scheduled。
func (q *Queue) kickLocked() bool {
	if q.paused || q.scheduled || q.inflight || q.lenLocked() == 0 {
		return false
	}
	q.scheduled = true
	return true
}

func (q *Queue) nextDelayLocked() time.Duration {
	if q.opts.retryDelay <= 0 {
		return 0
	}
	if q.delay == 0 {
		q.delay = q.opts.retryDelay
	} else {
		q.delay = min(q.delay*2, q.opts.maxRetryDelay)
	}
	return q.delay
}

func (q *Queue) lenLocked() int {
	return len(q.items) - q.head
}

// takeLocked 从队首取出一批，受条目数和字节数限制，至少一条。
func (q *Queue) takeLocked() []Entry {
	n, size := 0, 0
	for _, e := range q.items[q.head:] {
		if n >= q.opts.batchSize {
			break
		}
		if n > 0 && size+len(e.Data) > q.opts.batchBytes {
			break
		}
		size += len(e.Data)
		n++
	}
	batch := make([]Entry, n)
	copy(batch, q.items[q.head:q.head+n])
	clear(q.items[q.head : q.head+n])
	q.head += n
	q.pinned = max(0, q.pinned-n)
	q.compactLocked()
	return batch
}

// unshiftLocked 把条目按原顺序放回队首并标记为不可淘汰。
func (q *Queue) unshiftLocked(entries []Entry) {
	n := len(entries)
	if q.head >= n {
		q.head -= n
		copy(q.items[q.head:], entries)
	} else {
		rest := q.items[q.head:]
		items := make([]Entry, 0, n+len(rest))
		items = append(items, entries...)
		items = append(items, rest...)
		q.items = items
		q.head = 0
	}
	q.pinned += n
}

// evictOldestLocked 移除最旧的非回滚条目。
func (q *Queue) evictOldestLocked() Entry {
	idx := q.head + q.pinned
	e := q.items[idx]
	copy(q.items[q.head+1:idx+1], q.items[q.head:idx])
	q.items[q.head] = Entry{}
	q.head++
	q.compactLocked()
	return e
}

// compactLocked 在队首空洞过大时回收空间。
func (q *Queue) compactLocked() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}

// complete 调用条目回调，回调中的 panic 被隔离。
func complete(e Entry, err error) {
	if e.Done == nil {
		return
	}
	defer func() { _ = recover() }()
	e.Done(err)
}

func runAll(fns []func()) {
	for _, fn := range fns {
		func() {
			defer func() { _ = recover() }()
			fn()
		}()
	}
}
