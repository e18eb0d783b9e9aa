package registry

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"linesplit/pkg/contract"
	ddg "linesplit/plugins/dedup/digest"
	dex "linesplit/plugins/dedup/exact"
	rfs "linesplit/plugins/reader/filesystem"
	wfs "linesplit/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewDeduper 工厂签名：接收原样 JSON Options。
type NewDeduper func(raw json.RawMessage) (contract.Deduper, error)

// NewWriter 工厂签名：输出目录由顶层配置给出（非空时覆盖 options.output_dir）。
type NewWriter func(outputDir string, raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 本地文件行 Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts)
	},
}

// Deduper 工厂注册表。
var Deduper = map[string]NewDeduper{
	// exact: 以行内容为键
	"exact": func(raw json.RawMessage) (contract.Deduper, error) {
		var opts dex.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return dex.New(&opts), nil
	},
	// digest: 以 SHA-256 摘要为键（长行省内存）
	"digest": func(raw json.RawMessage) (contract.Deduper, error) {
		var opts ddg.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ddg.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(outputDir string, raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		if strings.TrimSpace(outputDir) != "" {
			opts.OutputDir = outputDir
		}
		return wfs.New(&opts)
	},
}

// Names 返回注册表中的实现名（字典序），用于错误提示。
func Names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
