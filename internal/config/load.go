package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
)

// DefaultLinesPerFile 为未配置时的分片行数上限。
const DefaultLinesPerFile = 100000

// Defaults 返回带有安全默认值的 Config 雏形。
// 注意：Input/Output 不设默认（必须由 JSON/CLI 提供）。
func Defaults() Config {
	return Config{
		LinesPerFile: DefaultLinesPerFile,
		Logging:      Logging{Level: "warn"},
		Components: Components{
			Reader:  "fs",
			Deduper: "exact",
			Writer:  "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	// 单文档：尾随内容视为错误
	if dec.More() {
		return cfg, errors.New("config: trailing data after JSON object")
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
// 零值视为未覆盖；需要显式覆盖为零值的字段（CLI）由调用方在合并后直接赋值。
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.Input); s != "" {
		out.Input = s
	}
	if s := strings.TrimSpace(over.Output); s != "" {
		out.Output = s
	}
	if over.LinesPerFile != 0 {
		out.LinesPerFile = over.LinesPerFile
	}
	if over.RemoveDuplicates {
		out.RemoveDuplicates = true
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(over.Logging.Dir); s != "" {
		out.Logging.Dir = s
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Deduper != "" {
		out.Components.Deduper = over.Components.Deduper
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Deduper) > 0 {
		out.Options.Deduper = cloneRaw(over.Options.Deduper)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
