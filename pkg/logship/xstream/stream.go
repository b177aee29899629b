package xstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xship/pkg/logship/xqueue"
	"github.com/omeyang/xship/pkg/logship/xserial"
	"github.com/omeyang/xship/pkg/observability/xrotate"
	"github.com/omeyang/xship/pkg/util/xpool"
	"github.com/omeyang/xship/pkg/util/xsize"
)

// fileRotator 是流对轮转器的依赖，*xrotate.Rotator 实现了此接口。
type fileRotator interface {
	Init(startNew bool, cb func(error))
	Rotate(t xrotate.Trigger, cb func(error))
	End(cb func(error))
}

var _ fileRotator = (*xrotate.Rotator)(nil)

type rotatorFactory func(path string, exec xrotate.Executor, l xrotate.Listener, opts ...xrotate.Option) (fileRotator, error)

func newFileRotator(path string, exec xrotate.Executor, l xrotate.Listener, opts ...xrotate.Option) (fileRotator, error) {
	return xrotate.New(path, exec, l, opts...)
}

// Stream 是一个日志流。所有方法并发安全。
type Stream struct {
	id     string
	path   string
	opts   options
	policy xserial.Policy
	// policyErr 是配置冲突，Init 时作为 error 事件发布
	policyErr error

	exec    *xpool.Serial
	queue   *xqueue.Queue
	rotator fileRotator
	events  *bus

	current  atomic.Pointer[xrotate.Handle]
	rotating atomic.Bool
	ending   atomic.Bool
	closed   atomic.Bool

	initOnce     sync.Once
	shutdownOnce sync.Once
}

// New 创建日志流，不打开文件；调用 [Stream.Init] 后开始写入。
// Init 之前写入的记录在队列中等待。
func New(path string, opts ...Option) (*Stream, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	totalSize, err := xsize.Parse(o.totalSize)
	if err != nil {
		return nil, fmt.Errorf("xstream: total size: %w", err)
	}
	policy, policyErr := xserial.NewPolicy(xserial.Config{
		Format:        o.format,
		FieldOrder:    o.fieldOrder,
		NoCyclesCheck: o.noCyclesCheck,
		Raw:           o.raw,
	})

	s := &Stream{
		id:        uuid.NewString(),
		path:      path,
		opts:      o,
		policy:    policy,
		policyErr: policyErr,
		events:    newBus(),
	}
	s.exec = xpool.NewSerial(xpool.WithName("xstream:" + s.id))

	queueOpts := append([]xqueue.Option{
		xqueue.WithOnLosingData(func(n int) { s.emit(Event{Kind: EventLosingData, QueueLen: n}) }),
		xqueue.WithOnCaughtUp(func() { s.emit(Event{Kind: EventCaughtUp}) }),
		xqueue.WithOnError(func(err error) { s.emit(Event{Kind: EventError, Err: err}) }),
	}, o.queueOpts...)
	s.queue = xqueue.New(s.exec, s.writeBatch, queueOpts...)

	s.rotator, err = o.newRotator(path, s.exec, rotatorListener{s},
		xrotate.WithTotalFiles(o.totalFiles),
		xrotate.WithTotalSize(totalSize),
		xrotate.WithGzip(o.gzip),
		xrotate.WithFileMode(o.fileMode),
	)
	if err != nil {
		s.exec.Stop()
		return nil, err
	}
	return s, nil
}

// ID 返回流的唯一标识，随每个事件发布。
func (s *Stream) ID() string {
	return s.id
}

// Path 返回当前文件路径。
func (s *Stream) Path() string {
	return s.path
}

// Shared 返回 WithShared 设置的标志。
func (s *Stream) Shared() bool {
	return s.opts.shared
}

// Format 返回实际生效的输出格式。
func (s *Stream) Format() xserial.Format {
	return s.policy.Format()
}

// QueueLen 返回排队中的记录数。
func (s *Stream) QueueLen() int {
	return s.queue.Len()
}

// Stats 返回队列的累计计数。
func (s *Stream) Stats() xqueue.Stats {
	return s.queue.Stats()
}

// Done 返回流完全关闭后关闭的 channel。
func (s *Stream) Done() <-chan struct{} {
	return s.exec.Done()
}

// On 订阅事件，返回取消订阅函数。
func (s *Stream) On(kind EventKind, fn Handler) func() {
	return s.events.on(kind, fn)
}

// Init 打开当前文件。只有第一次调用生效。
// 失败通过 error 事件上报，之后的 Rotate 会重试打开。
func (s *Stream) Init() {
	s.initOnce.Do(func() {
		if s.policyErr != nil {
			s.emit(Event{Kind: EventError, Err: s.policyErr})
		}
		s.rotator.Init(s.opts.startNewFile, nil)
	})
}

// Write 变换、序列化并入队一条记录，返回入队后的队列长度。从不阻塞。
//
// done 在记录写入、被淘汰、被丢弃或序列化失败时调用一次，可以为 nil。
// 被 map 丢弃的记录以 nil 完成。
func (s *Stream) Write(rec xserial.Record, done func(error)) int {
	if s.closed.Load() || s.ending.Load() {
		complete(done, ErrClosed)
		return 0
	}

	rec, keep := s.opts.mapFn.Apply(rec)
	if !keep {
		complete(done, nil)
		return s.queue.Len()
	}
	data, err := s.policy.Serialize(rec)
	if err != nil {
		s.emit(Event{Kind: EventError, Err: err})
		complete(done, err)
		return s.queue.Len()
	}

	n := s.queue.Push(data, done)
	if s.events.has(EventPerfQueued) {
		s.emit(Event{Kind: EventPerfQueued, QueueLen: n})
	}
	return n
}

// Rotate 请求一次轮转。上一次轮转完成前的请求以 [ErrRotating] 完成，不做任何事。
//
// 调用时立即暂停队列，已排队但尚未写入的记录全部进入新文件。
// End 排空期间仍可轮转：队列暂停时排空等待，轮转完成恢复后才收尾关闭。
func (s *Stream) Rotate(t xrotate.Trigger, done func(error)) {
	if s.closed.Load() {
		complete(done, ErrClosed)
		return
	}
	if !s.rotating.CompareAndSwap(false, true) {
		complete(done, ErrRotating)
		return
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}
	if h := s.current.Load(); h != nil && t.Bytes == 0 {
		t.Bytes = h.Size()
	}

	s.queue.Pause()
	start := time.Now()
	s.rotator.Rotate(t, func(err error) {
		if s.current.Load() != nil {
			s.queue.Resume()
		}
		s.rotating.Store(false)
		s.emit(Event{Kind: EventPerfRotation, Trigger: t, Duration: time.Since(start), Err: err})
		complete(done, err)
	})
}

// End 写完队列中的所有记录后关闭文件，之后发布 shutdown。
// 没有可写文件时会一直等待，需要限时请使用 [Stream.Close]。
func (s *Stream) End(done func(error)) {
	if s.closed.Load() || !s.ending.CompareAndSwap(false, true) {
		complete(done, ErrClosed)
		return
	}
	s.queue.Join(func() {
		s.queue.Pause()
		s.rotator.End(func(err error) {
			s.closed.Store(true)
			s.queue.Close(ErrClosed)
			s.shutdown(err)
			complete(done, err)
		})
	})
}

// Destroy 丢弃队列中的记录（以 [ErrDestroyed] 完成）并立即关闭文件。
func (s *Stream) Destroy() {
	if s.closed.Swap(true) {
		return
	}
	s.queue.Close(ErrDestroyed)
	s.rotator.End(func(err error) {
		s.shutdown(err)
	})
}

// DestroySoon 同 Destroy，但排在执行器上已调度的工作之后。
func (s *Stream) DestroySoon() {
	if !s.exec.Go(s.Destroy) {
		s.Destroy()
	}
}

// Join 在队列排空后调用 done。
func (s *Stream) Join(done func()) {
	s.queue.Join(done)
}

// Close 阻塞地结束流：先 End，ctx 到期时改为 Destroy。返回 End 的错误或 ctx 的错误。
func (s *Stream) Close(ctx context.Context) error {
	result := make(chan error, 1)
	s.End(func(err error) { result <- err })

	var err error
	select {
	case err = <-result:
		if errors.Is(err, ErrClosed) {
			// 已由其他调用结束，等待其完成
			err = nil
		}
	case <-ctx.Done():
		return s.abort(ctx)
	}

	select {
	case <-s.exec.Done():
		return err
	case <-ctx.Done():
		return s.abort(ctx)
	}
}

// abort 在 ctx 到期后销毁流并等待执行器退出。
func (s *Stream) abort(ctx context.Context) error {
	s.Destroy()
	s.exec.Wait()
	return ctx.Err()
}

// shutdown 发布 shutdown 事件并停止执行器，只执行一次。
func (s *Stream) shutdown(err error) {
	s.shutdownOnce.Do(func() {
		s.emit(Event{Kind: EventShutdown, Err: err})
		s.exec.Stop()
	})
}

// writeBatch 是队列的批量写入器，在执行器上运行。每批只读取一次当前句柄。
func (s *Stream) writeBatch(batch []xqueue.Entry) (int, error) {
	h := s.current.Load()
	if h == nil {
		return -1, ErrNoFile
	}

	data := make([][]byte, len(batch))
	for i, e := range batch {
		data[i] = e.Data
	}
	start := time.Now()
	last, err := h.WriteBatch(data)
	elapsed := time.Since(start)

	info := h.Info()
	written := 0
	for _, d := range data[:last+1] {
		written += len(d)
	}
	if s.events.has(EventLogWrite) {
		for _, d := range data[:last+1] {
			s.emit(Event{Kind: EventLogWrite, File: info, Bytes: len(d)})
		}
	}
	if s.events.has(EventPerfWriteBatch) {
		s.emit(Event{
			Kind:     EventPerfWriteBatch,
			File:     info,
			Bytes:    written,
			Count:    last + 1,
			QueueLen: s.queue.Len(),
			Duration: elapsed,
			Err:      err,
		})
	}
	return last, err
}

func (s *Stream) emit(e Event) {
	e.StreamID = s.id
	s.events.emit(e)
}

// rotatorListener 把轮转器通知接到队列：closefile 暂停，newfile 恢复。
type rotatorListener struct {
	s *Stream
}

func (l rotatorListener) CloseFile(xrotate.FileInfo) {
	l.s.queue.Pause()
	l.s.current.Store(nil)
}

func (l rotatorListener) NewFile(h *xrotate.Handle) {
	l.s.current.Store(h)
	l.s.queue.Resume()
	l.s.emit(Event{Kind: EventNewFile, File: h.Info()})
}

func (l rotatorListener) Error(err error) {
	l.s.emit(Event{Kind: EventError, Err: err})
}

func complete(done func(error), err error) {
	if done == nil {
		return
	}
	defer func() { _ = recover() }()
	done(err)
}
