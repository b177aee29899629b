package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xship/pkg/logship/xserial"
	"github.com/omeyang/xship/pkg/util/xproc"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testDecoder(raw bool) decoder {
	return decoder{
		raw: raw,
		id:  xproc.Identity{Name: "xshipd", PID: 42, Hostname: "box"},
		now: func() time.Time { return fixedNow },
	}
}

type collectWriter struct {
	mu   sync.Mutex
	recs []xserial.Record
}

func (w *collectWriter) Write(rec xserial.Record, done func(error)) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recs = append(w.recs, rec)
	if done != nil {
		done(nil)
	}
	return len(w.recs)
}

func (w *collectWriter) records() []xserial.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]xserial.Record(nil), w.recs...)
}

// ============================================================================
// decoder
// ============================================================================

func TestDecoder(t *testing.T) {
	t.Run("JSON 对象补齐进程身份", func(t *testing.T) {
		rec, err := testDecoder(false).decode([]byte(`{"msg":"hi","pid":7,"big":12345678901234567890}`))
		require.NoError(t, err)
		f, ok := rec.(xserial.Fields)
		require.True(t, ok)
		assert.Equal(t, "hi", f["msg"])
		assert.Equal(t, json.Number("7"), f["pid"], "已有字段不覆盖")
		assert.Equal(t, json.Number("12345678901234567890"), f["big"], "大整数不丢精度")
		assert.Equal(t, "xshipd", f["name"])
		assert.Equal(t, "box", f["hostname"])
		assert.Equal(t, fixedNow, f["time"])
	})

	t.Run("空行跳过", func(t *testing.T) {
		rec, err := testDecoder(false).decode([]byte("   "))
		assert.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("无法解析的行保留原文", func(t *testing.T) {
		for _, line := range []string{`not json`, `[1,2]`, `{"a":1} {"b":2}`, `null`} {
			rec, err := testDecoder(false).decode([]byte(line))
			require.Error(t, err, line)
			f, ok := rec.(xserial.Fields)
			require.True(t, ok, line)
			assert.Equal(t, line, f["msg"])
			assert.Equal(t, 42, f["pid"])
		}
	})

	t.Run("raw 原样透传", func(t *testing.T) {
		rec, err := testDecoder(true).decode([]byte(`  {"msg":"hi"}`))
		require.NoError(t, err)
		assert.Equal(t, xserial.Text("  {\"msg\":\"hi\"}\n"), rec)
	})
}

// ============================================================================
// pump
// ============================================================================

func TestPump_ReadsUntilEOF(t *testing.T) {
	in := strings.NewReader("{\"msg\":\"a\"}\n\nbroken\n{\"msg\":\"b\"}")
	w := &collectWriter{}
	var reported []error

	err := pump(context.Background(), in, w, testDecoder(false), func(err error) {
		reported = append(reported, err)
	})
	require.NoError(t, err)

	recs := w.records()
	require.Len(t, recs, 3)
	assert.Equal(t, "a", recs[0].(xserial.Fields)["msg"])
	assert.Equal(t, "broken", recs[1].(xserial.Fields)["msg"])
	assert.Equal(t, "b", recs[2].(xserial.Fields)["msg"])
	assert.Len(t, reported, 1)
}

func TestPump_ReadError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("x\n"), &errReader{err: boom})
	err := pump(context.Background(), r, &collectWriter{}, testDecoder(true), nil)
	assert.ErrorIs(t, err, boom)
}

func TestPump_LineTooLong(t *testing.T) {
	in := strings.NewReader(strings.Repeat("x", maxLineSize+1) + "\n")
	err := pump(context.Background(), in, &collectWriter{}, testDecoder(true), nil)
	assert.Error(t, err)
}

func TestPump_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	w := &collectWriter{}
	done := make(chan error, 1)
	go func() { done <- pump(ctx, pr, w, testDecoder(true), nil) }()

	_, err := pw.Write([]byte("first\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(w.records()) == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not return after cancel")
	}
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }
