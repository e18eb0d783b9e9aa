package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	// LinesPerFile: 每个分片最多写出的行数（>=1）。JSON 中 0 视为未设置。
	LinesPerFile     int     `json:"lines_per_file"`
	RemoveDuplicates bool    `json:"remove_duplicates"`
	Logging          Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 日志等级与可选的落盘目录（为空写 stderr）。
type Logging struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader  string `json:"reader"`
	Deduper string `json:"deduper"`
	Writer  string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader  json.RawMessage `json:"reader"`
	Deduper json.RawMessage `json:"deduper"`
	Writer  json.RawMessage `json:"writer"`
}
