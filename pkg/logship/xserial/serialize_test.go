package xserial

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 策略解析
// =============================================================================

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    Format
		wantErr error
	}{
		{name: "默认JSON", cfg: Config{}, want: FormatJSON},
		{name: "字段顺序升级为有序JSON", cfg: Config{FieldOrder: []string{"a"}}, want: FormatOrderedJSON},
		{name: "关闭循环检测", cfg: Config{NoCyclesCheck: true}, want: FormatUnsafeJSON},
		{name: "文本", cfg: Config{Format: FormatText}, want: FormatText},
		{name: "原样透传", cfg: Config{Raw: true}, want: FormatRaw},
		{name: "原样透传与字段顺序冲突", cfg: Config{Raw: true, FieldOrder: []string{"a"}}, want: FormatRaw, wantErr: ErrFieldOrderWithRaw},
		{name: "显式Raw格式与字段顺序冲突", cfg: Config{Format: FormatRaw, FieldOrder: []string{"a"}}, want: FormatRaw, wantErr: ErrFieldOrderWithRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, p.Format())
		})
	}
}

func TestNewPolicy_RawDropsFieldOrder(t *testing.T) {
	p, err := NewPolicy(Config{Raw: true, FieldOrder: []string{"a", "b"}})
	require.ErrorIs(t, err, ErrFieldOrderWithRaw)
	assert.Empty(t, p.FieldOrder())

	out, err := p.Serialize(Fields{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`+"\n", string(out))
}

func TestParseFormat(t *testing.T) {
	for f, name := range formatNames {
		got, ok := ParseFormat(name)
		assert.True(t, ok)
		assert.Equal(t, f, got)
		assert.Equal(t, name, f.String())
	}
	got, ok := ParseFormat("")
	assert.True(t, ok)
	assert.Equal(t, FormatJSON, got)

	_, ok = ParseFormat("xml")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Format(99).String())
}

// =============================================================================
// JSON
// =============================================================================

func TestSerialize_OrderedJSON(t *testing.T) {
	p, err := NewPolicy(Config{FieldOrder: []string{"a", "b"}})
	require.NoError(t, err)

	out, err := Serialize(Fields{"b": 1, "a": 2, "c": 3}, p)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`+"\n", string(out))
}

func TestSerialize_OrderedJSON_StructCycle(t *testing.T) {
	p, err := NewPolicy(Config{FieldOrder: []string{"msg"}})
	require.NoError(t, err)

	n := &node{Name: "a"}
	n.Next = &node{Name: "b", Next: n}
	out, err := p.Serialize(Fields{"node": n, "msg": "hi"})
	require.NoError(t, err)
	assert.Equal(t, `{"msg":"hi","node":{"name":"a","next":{"name":"b","next":"[Circular]"}}}`+"\n", string(out))
}

func TestSerialize_OrderedJSON_ListedFirst(t *testing.T) {
	p, err := NewPolicy(Config{FieldOrder: []string{"time", "missing", "msg", "time"}})
	require.NoError(t, err)

	out, err := p.Serialize(Fields{"a": 1, "msg": "hi", "time": "T", "z": true})
	require.NoError(t, err)
	assert.Equal(t, `{"time":"T","msg":"hi","a":1,"z":true}`+"\n", string(out))
}

type node struct {
	Name string `json:"name"`
	Next *node `json:"next,omitempty"`
	seen int
}

type meta struct {
	Host string `json:"host"`
	Tags []string
}

type request struct {
	meta
	ID     int       `json:"id"`
	Token  string    `json:"-"`
	Retry  int       `json:"retry,omitempty"`
	Start  time.Time `json:"start"`
	Parent *request  `json:"parent,omitempty"`
}

func TestSerialize_JSON(t *testing.T) {
	var p Policy

	t.Run("按键排序并换行结尾", func(t *testing.T) {
		out, err := p.Serialize(Fields{"b": 1, "a": "<x>"})
		require.NoError(t, err)
		assert.Equal(t, `{"a":"<x>","b":1}`+"\n", string(out))
	})

	t.Run("循环引用替换为标记", func(t *testing.T) {
		f := Fields{"a": 1}
		f["self"] = f
		out, err := p.Serialize(f)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1,"self":"[Circular]"}`+"\n", string(out))
	})

	t.Run("深层循环", func(t *testing.T) {
		inner := map[string]any{"k": "v"}
		list := []any{inner}
		inner["list"] = list
		out, err := p.Serialize(Fields{"x": inner})
		require.NoError(t, err)
		assert.Equal(t, `{"x":{"k":"v","list":["[Circular]"]}}`+"\n", string(out))
	})

	t.Run("结构体指针循环替换为标记", func(t *testing.T) {
		n := &node{Name: "a", seen: 1}
		n.Next = n
		out, err := p.Serialize(Fields{"msg": "hi", "node": n})
		require.NoError(t, err)
		assert.Equal(t, `{"msg":"hi","node":{"name":"a","next":"[Circular]"}}`+"\n", string(out))
	})

	t.Run("结构体遵循json标签", func(t *testing.T) {
		r := &request{
			meta:  meta{Host: "h1", Tags: []string{"x"}},
			ID:    7,
			Token: "secret",
			Start: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		r.Parent = &request{ID: 6, Parent: r}
		out, err := p.Serialize(Fields{"req": r})
		require.NoError(t, err)
		assert.Equal(t,
			`{"req":{"Tags":["x"],"host":"h1","id":7,"parent":{"Tags":null,"host":"","id":6,"parent":"[Circular]","start":"0001-01-01T00:00:00Z"},"start":"2024-01-02T03:04:05Z"}}`+"\n",
			string(out))
	})

	t.Run("兄弟位置重复引用不算循环", func(t *testing.T) {
		shared := map[string]any{"x": 1}
		out, err := p.Serialize(Fields{"l": shared, "r": shared})
		require.NoError(t, err)
		assert.Equal(t, `{"l":{"x":1},"r":{"x":1}}`+"\n", string(out))
	})

	t.Run("不可编码的叶子降级", func(t *testing.T) {
		out, err := p.Serialize(Fields{
			"nan": math.NaN(),
			"fn":  func() {},
			"ch":  make(chan int),
			"err": errors.New("disk full"),
			"num": json.Number("1.5"),
		})
		require.NoError(t, err)
		assert.Equal(t, `{"ch":null,"err":"disk full","fn":null,"nan":null,"num":1.5}`+"\n", string(out))
	})
}

func TestSerialize_UnsafeJSON(t *testing.T) {
	p, err := NewPolicy(Config{NoCyclesCheck: true})
	require.NoError(t, err)

	t.Run("普通记录", func(t *testing.T) {
		out, err := p.Serialize(Fields{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`+"\n", string(out))
	})

	t.Run("循环记录只影响本条", func(t *testing.T) {
		f := Fields{"a": 1}
		f["self"] = map[string]any(f)
		out, err := p.Serialize(f)
		assert.ErrorIs(t, err, ErrMarshal)
		assert.Nil(t, out)

		out, err = p.Serialize(Fields{"b": 2})
		require.NoError(t, err)
		assert.Equal(t, `{"b":2}`+"\n", string(out))
	})
}

// =============================================================================
// 原样透传
// =============================================================================

func TestSerialize_TextPassthrough(t *testing.T) {
	for f := range formatNames {
		t.Run(f.String(), func(t *testing.T) {
			p, err := NewPolicy(Config{Format: f})
			require.NoError(t, err)
			out, err := p.Serialize(Text("already formatted"))
			require.NoError(t, err)
			assert.Equal(t, "already formatted", string(out), "不应补换行")
		})
	}
}

func TestSerialize_NilRecord(t *testing.T) {
	_, err := Serialize(nil, Policy{})
	assert.ErrorIs(t, err, ErrNilRecord)

	_, err = Serialize(Fields(nil), Policy{})
	assert.ErrorIs(t, err, ErrNilRecord)
}

// =============================================================================
// 文本
// =============================================================================

type panicky struct{}

func (panicky) MarshalJSON() ([]byte, error) { panic("boom") }

type failing struct{}

func (failing) MarshalJSON() ([]byte, error) { return nil, errors.New("nope") }

func TestSerialize_Text(t *testing.T) {
	p, err := NewPolicy(Config{Format: FormatText})
	require.NoError(t, err)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	t.Run("基本行", func(t *testing.T) {
		out, err := p.Serialize(Fields{"msg": "hi", "level": 30, "name": "svc", "pid": 1, "time": ts})
		require.NoError(t, err)
		assert.Equal(t, "[2024-01-02T03:04:05.006Z] svc.INFO L=30 E=\"hi\" pid=1\n", string(out))
	})

	t.Run("字符串时间原样输出", func(t *testing.T) {
		out, err := p.Serialize(Fields{"msg": "hi", "level": 50, "name": "svc", "pid": 1, "time": "T"})
		require.NoError(t, err)
		assert.Equal(t, "[T] svc.ERROR L=50 E=\"hi\" pid=1\n", string(out))
	})

	t.Run("非UTC时间转换为UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+8", 8*3600)
		out, err := p.Serialize(Fields{"time": time.Date(2024, 1, 2, 11, 0, 0, 0, loc)})
		require.NoError(t, err)
		assert.Equal(t, "[2024-01-02T03:00:00.000Z] .INFO L=30 E=\"\" pid=\n", string(out))
	})

	t.Run("附加字段按字典序转义", func(t *testing.T) {
		out, err := p.Serialize(Fields{
			"msg": "say \"hi\"", "level": 40, "name": "svc", "pid": 7, "time": "T",
			"hostname": "h", "v": 0,
			"user": "bob", "n": 42, "obj": map[string]any{"k": "v"}, "uni": "é\n",
		})
		require.NoError(t, err)
		want := `[T] svc.WARN L=40 E="say \"hi\"" pid=7 n="42" obj="{\"k\":\"v\"}" uni="\u00e9\n" user="bob"` + "\n"
		assert.Equal(t, want, string(out))
	})

	t.Run("失败字段被省略", func(t *testing.T) {
		out, err := p.Serialize(Fields{"name": "svc", "pid": 1, "time": "T", "a": panicky{}, "b": failing{}, "c": "ok"})
		require.NoError(t, err)
		assert.Equal(t, "[T] svc.INFO L=30 E=\"\" pid=1 c=\"ok\"\n", string(out))
	})

	t.Run("json.Number级别", func(t *testing.T) {
		out, err := p.Serialize(Fields{"level": json.Number("60"), "name": "svc", "pid": 1, "time": "T", "msg": "x"})
		require.NoError(t, err)
		assert.Equal(t, "[T] svc.FATAL L=60 E=\"x\" pid=1\n", string(out))
	})
}

// =============================================================================
// 级别与变换
// =============================================================================

func TestLevel(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{10, "TRACE"},
		{20, "DEBUG"},
		{30, "INFO"},
		{40, "WARN"},
		{50, "ERROR"},
		{60, "FATAL"},
		{35, "INFO"},
		{float64(40), "WARN"},
		{int64(50), "ERROR"},
		{json.Number("20"), "DEBUG"},
		{json.Number("20.0"), "DEBUG"},
		{40.5, "INFO"},
		{"warn", "INFO"},
		{nil, "INFO"},
	}
	for _, tt := range tests {
		lvl, _ := LevelOf(tt.in)
		assert.Equal(t, tt.want, lvl.String(), "level %v", tt.in)
	}
}

func TestMapFunc_Apply(t *testing.T) {
	t.Run("nil变换保留原记录", func(t *testing.T) {
		var fn MapFunc
		out, keep := fn.Apply(Fields{"a": 1})
		assert.True(t, keep)
		assert.Equal(t, Fields{"a": 1}, out)
	})

	t.Run("返回空时丢弃", func(t *testing.T) {
		fn := MapFunc(func(Fields) Fields { return nil })
		_, keep := fn.Apply(Fields{"a": 1})
		assert.False(t, keep)

		fn = func(Fields) Fields { return Fields{} }
		_, keep = fn.Apply(Fields{"a": 1})
		assert.False(t, keep)
	})

	t.Run("变换结果被使用", func(t *testing.T) {
		fn := MapFunc(func(f Fields) Fields { return Fields{"wrapped": f["a"]} })
		out, keep := fn.Apply(Fields{"a": 1})
		assert.True(t, keep)
		assert.Equal(t, Fields{"wrapped": 1}, out)
	})

	t.Run("文本记录不经过变换", func(t *testing.T) {
		fn := MapFunc(func(Fields) Fields { return nil })
		out, keep := fn.Apply(Text("x"))
		assert.True(t, keep)
		assert.Equal(t, Text("x"), out)
	})
}

func TestIsInternal(t *testing.T) {
	for _, k := range []string{"name", "hostname", "pid", "level", "msg", "time", "v", "version"} {
		assert.True(t, IsInternal(k), k)
	}
	assert.False(t, IsInternal("user"))
}
