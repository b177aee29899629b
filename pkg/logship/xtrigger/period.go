package xtrigger

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/xship/pkg/observability/xrotate"
)

// 周期别名对应的 cron 描述符。
var periodAliases = map[string]string{
	"hourly":  "@hourly",
	"daily":   "@daily",
	"weekly":  "@weekly",
	"monthly": "@monthly",
	"yearly":  "@yearly",
}

// 单位为 1 时的描述符，例如 "1d" 等于每天零点。
var unitAliases = map[byte]string{
	'h': "@hourly",
	'd': "@daily",
	'w': "@weekly",
	'm': "@monthly",
	'y': "@yearly",
}

var unitDurations = map[byte]time.Duration{
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParsePeriod 解析周期表达式。支持的写法：
//
//	hourly | daily | weekly | monthly | yearly
//	<N>h | <N>d | <N>w     N 为 1 时对齐到整点/零点，否则按固定间隔
//	1m | 1y                每月/每年
//	@every 90m             robfig/cron 的固定间隔
//	0 3 * * *              标准 5 段 cron
func ParsePeriod(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrInvalidPeriod
	}
	if alias, ok := periodAliases[strings.ToLower(spec)]; ok {
		spec = alias
	} else if sched, ok, err := parseCount(spec); ok {
		return sched, err
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPeriod, spec, err)
	}
	return sched, nil
}

// parseCount 解析 <N><unit> 形式。ok 为 false 表示不是这种形式。
func parseCount(spec string) (sched cron.Schedule, ok bool, err error) {
	if len(spec) < 2 {
		return nil, false, nil
	}
	unit := spec[len(spec)-1]
	n, convErr := strconv.Atoi(spec[:len(spec)-1])
	if convErr != nil {
		return nil, false, nil
	}
	alias, known := unitAliases[unit]
	if !known {
		return nil, false, nil
	}
	if n <= 0 {
		return nil, true, fmt.Errorf("%w: %q", ErrInvalidPeriod, spec)
	}
	if n == 1 {
		sched, err := cron.ParseStandard(alias)
		return sched, true, err
	}
	d, fixed := unitDurations[unit]
	if !fixed {
		return nil, true, fmt.Errorf("%w: %q: only 1%c is supported", ErrInvalidPeriod, spec, unit)
	}
	return cron.Every(time.Duration(n) * d), true, nil
}

// Period 按 cron 计划请求轮转。
type Period struct {
	target   Target
	spec     string
	schedule cron.Schedule
	cron     *cron.Cron
	opts     options

	mu      sync.Mutex
	running bool
}

// NewPeriod 解析 spec 并创建周期触发器。需要调用 [Period.Start] 开始调度。
func NewPeriod(target Target, spec string, opts ...Option) (*Period, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	schedule, err := ParsePeriod(spec)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	p := &Period{
		target:   target,
		spec:     spec,
		schedule: schedule,
		opts:     o,
		cron:     cron.New(cron.WithLocation(o.location)),
	}
	p.cron.Schedule(schedule, cron.FuncJob(p.fire))
	return p, nil
}

// Spec 返回创建时的周期表达式。
func (p *Period) Spec() string {
	return p.spec
}

// Next 返回 t 之后的下一次触发时间。
func (p *Period) Next(t time.Time) time.Time {
	return p.schedule.Next(t.In(p.opts.location))
}

// Start 开始调度（非阻塞）。重复调用无效果。
func (p *Period) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.cron.Start()
}

// Stop 停止调度并等待执行中的触发返回。
func (p *Period) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()
	<-p.cron.Stop().Done()
}

func (p *Period) fire() {
	fire(p.target, xrotate.Trigger{Reason: xrotate.ReasonPeriod}, p.opts.onError, nil)
}
