package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/omeyang/xship/pkg/logship/xserial"
	"github.com/omeyang/xship/pkg/util/xproc"
	"github.com/omeyang/xship/pkg/util/xsize"
)

// maxLineSize 是单行输入的上限，更长的行按扫描错误结束输入。
var maxLineSize = int(xsize.MustParse("1m"))

// recordWriter 是 pump 写入的目标，*xstream.Stream 实现了此接口。
type recordWriter interface {
	Write(rec xserial.Record, done func(error)) int
}

// decoder 把输入行转换为记录。
type decoder struct {
	raw bool
	id  xproc.Identity
	now func() time.Time
}

// decode 转换一行输入（不含换行符）。空行返回 nil。
// 非 JSON 对象的行以 msg 字段保留原文，同时返回解析错误。
func (d decoder) decode(line []byte) (xserial.Record, error) {
	if d.raw {
		return xserial.Text(string(line) + "\n"), nil
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var fields xserial.Fields
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	err := dec.Decode(&fields)
	if err == nil && dec.More() {
		err = errors.New("trailing data")
	}
	if err != nil || fields == nil {
		if err == nil {
			err = errors.New("not an object")
		}
		fields = xserial.Fields{"msg": string(line)}
		err = fmt.Errorf("decode input line: %w", err)
	}

	d.id.Stamp(fields)
	if _, ok := fields["time"]; !ok {
		fields["time"] = d.now()
	}
	return fields, err
}

// pump 逐行读取 r 写入 w，直到 r 结束（返回读取错误或 nil）或 ctx 取消（返回 nil）。
// 单行解析失败通过 report 上报，不中断读取。
func pump(ctx context.Context, r io.Reader, w recordWriter, d decoder, report func(error)) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)

	// 读取可能阻塞在 r 上，单独的 goroutine 让 ctx 取消时可以立即返回
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			select {
			case lines <- bytes.Clone(sc.Bytes()):
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			rec, err := d.decode(line)
			if err != nil && report != nil {
				report(err)
			}
			if rec != nil {
				w.Write(rec, nil)
			}
		}
	}
}
