package xrun

import (
	"bytes"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/xship/pkg/observability/xlog"
)

// fakeSignals 替代 signal.Notify/Stop，测试中不发送真实信号。
type fakeSignals struct {
	mu   sync.Mutex
	subs map[chan<- os.Signal][]os.Signal
}

func newFakeSignals() *fakeSignals {
	return &fakeSignals{subs: make(map[chan<- os.Signal][]os.Signal)}
}

func (f *fakeSignals) option() Option {
	return func(o *groupOptions) {
		o.notify = f.notify
		o.stop = f.stop
	}
}

func (f *fakeSignals) notify(c chan<- os.Signal, sig ...os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[c] = append(f.subs[c], sig...)
}

func (f *fakeSignals) stop(c chan<- os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, c)
}

func (f *fakeSignals) registered(sig os.Signal) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sigs := range f.subs {
		if slices.Contains(sigs, sig) {
			return true
		}
	}
	return false
}

// send 等待 sig 被订阅后投递给所有订阅者。
func (f *fakeSignals) send(t *testing.T, sig os.Signal) {
	t.Helper()
	require.Eventually(t, func() bool { return f.registered(sig) }, waitFor, tick)

	f.mu.Lock()
	var targets []chan<- os.Signal
	for c, sigs := range f.subs {
		if slices.Contains(sigs, sig) {
			targets = append(targets, c)
		}
	}
	f.mu.Unlock()
	for _, c := range targets {
		c <- sig
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(t *testing.T) (xlog.Logger, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	logger, cleanup, err := xlog.New().
		SetOutput(buf).
		SetLevel(xlog.LevelDebug).
		SetFormat("json").
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger, buf
}
