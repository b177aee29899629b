package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Loader 持有解析后的配置源，可从文件重新加载。
type Loader struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string
	format Format
	opts   *Options
}

// New 从文件路径创建 Loader，根据扩展名检测格式（.yaml/.yml 或 .json）。
func New(path string, opts ...Option) (*Loader, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	l := &Loader{path: path, format: format, opts: applyOptions(opts)}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewFromBytes 从字节数据创建 Loader，需要显式指定格式。空数据得到空配置。
func NewFromBytes(data []byte, format Format, opts ...Option) (*Loader, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}
	l := &Loader{format: format, opts: applyOptions(opts)}
	k, err := parse(data, format, l.opts.Delim)
	if err != nil {
		return nil, err
	}
	l.k = k
	return l, nil
}

// Client 返回当前的 koanf 实例。Reload 后返回的旧实例仍可使用，但数据是过期的。
func (l *Loader) Client() *koanf.Koanf {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.k
}

// Path 返回配置文件路径，从字节数据创建时为空。
func (l *Loader) Path() string {
	return l.path
}

// Format 返回配置格式。
func (l *Loader) Format() Format {
	return l.format
}

// Unmarshal 将 path 下的配置反序列化到 target，path 为空时反序列化整个配置。
// target 中配置未出现的字段保持原值。
func (l *Loader) Unmarshal(path string, target any) error {
	if err := l.Client().UnmarshalWithConf(path, target, koanf.UnmarshalConf{
		Tag: l.opts.Tag,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Config 返回以 [Default] 为底、叠加配置源后的配置。不做校验。
func (l *Loader) Config() (Config, error) {
	cfg := Default()
	if err := l.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Reload 重新读取并解析配置文件，成功后才替换当前配置。
func (l *Loader) Reload() error {
	if l.path == "" {
		return ErrNotWatchable
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, l.format, l.opts.Delim)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.k = k
	l.mu.Unlock()
	return nil
}

// Load 是 New 加 Config 的便捷形式。
func Load(path string, opts ...Option) (Config, error) {
	l, err := New(path, opts...)
	if err != nil {
		return Config{}, err
	}
	return l.Config()
}

// =============================================================================
// 内部辅助函数
// =============================================================================

func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

// parse 把数据解析到新的 koanf 实例。
func parse(data []byte, format Format, delim string) (*koanf.Koanf, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
