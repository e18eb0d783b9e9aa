package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 输入为 ./input.txt，输出到 ./out 目录；
// - 组件名采用仓库内置实现；
// - 选项给出全部键与安全中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	cfg := Config{
		Input:            "input.txt",
		Output:           "out",
		LinesPerFile:     d.LinesPerFile,
		RemoveDuplicates: false,
		Logging:          Logging{Level: d.Logging.Level, Dir: ""},
		Components:       d.Components,
	}
	// Options：包含所有键（值可为空/默认），确保键存在。
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "max_line_bytes": 67108864,
  "invalid_utf8": "drop"
}`)
	cfg.Options.Deduper = json.RawMessage(`{
  "initial_capacity": 0
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "",
  "atomic": false,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}
