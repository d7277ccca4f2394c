package chconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/chkit/pkg/chclient"
)

// Format 表示配置文件格式。
type Format string

const (
	// FormatYAML 表示 YAML 格式。
	FormatYAML Format = "yaml"
	// FormatJSON 表示 JSON 格式。
	FormatJSON Format = "json"
)

// Load 从文件加载客户端配置。
// 根据扩展名自动检测格式（.yaml/.yml 或 .json），
// 返回前已通过 Validate 校验。
func Load(path string) (chclient.Config, error) {
	if path == "" {
		return chclient.Config{}, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return chclient.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return chclient.Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return LoadBytes(data, format)
}

// LoadBytes 从字节数据加载客户端配置，需显式指定格式。
// 适用于 ConfigMap、嵌入配置等场景。空数据返回默认配置。
func LoadBytes(data []byte, format Format) (chclient.Config, error) {
	parser, err := parserFor(format)
	if err != nil {
		return chclient.Config{}, err
	}

	cfg := chclient.DefaultConfig()

	if len(data) > 0 {
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return chclient.Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
		if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return chclient.Config{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return chclient.Config{}, err
	}
	return cfg, nil
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
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// parserFor 返回格式对应的 koanf 解析器。
func parserFor(format Format) (koanf.Parser, error) {
	switch format {
	case FormatYAML:
		return kyaml.Parser(), nil
	case FormatJSON:
		return kjson.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
