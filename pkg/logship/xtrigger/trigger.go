package xtrigger

import (
	"errors"
	"time"

	"github.com/omeyang/xship/pkg/logship/xstream"
	"github.com/omeyang/xship/pkg/observability/xrotate"
)

// fire 以指定原因请求一次轮转，失败时通过 onError 上报。
func fire(target Target, t xrotate.Trigger, onError func(error), after func(error)) {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	target.Rotate(t, func(err error) {
		if after != nil {
			after(err)
		}
		if err != nil && !errors.Is(err, xstream.ErrRotating) && onError != nil {
			onError(err)
		}
	})
}
