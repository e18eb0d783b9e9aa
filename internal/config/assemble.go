package config

import (
	"errors"
	"fmt"
	"strings"

	"linesplit/internal/diag"
	"linesplit/internal/pipeline"
	"linesplit/pkg/contract"
	"linesplit/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return errors.New("config: input not set")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return errors.New("config: output not set")
	}
	if cfg.LinesPerFile < 1 {
		return fmt.Errorf("config: %w: lines_per_file must be >= 1, got %d", contract.ErrInvalidInput, cfg.LinesPerFile)
	}
	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" && !diag.ValidLevel(lv) {
		return fmt.Errorf("config: unknown logging.level %q", lv)
	}
	d := Defaults()
	if name := effName(cfg.Components.Reader, d.Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered (have %s)", name, strings.Join(registry.Names(registry.Reader), ", "))
	}
	if name := effName(cfg.Components.Deduper, d.Components.Deduper); registry.Deduper[name] == nil {
		return fmt.Errorf("config: deduper %q not registered (have %s)", name, strings.Join(registry.Names(registry.Deduper), ", "))
	}
	if name := effName(cfg.Components.Writer, d.Components.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered (have %s)", name, strings.Join(registry.Names(registry.Writer), ", "))
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry （工厂）层进行；此处只传 raw JSON。
// 仅在启用去重时构造 Deduper。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	// 有效名称
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	dn := effName(cfg.Components.Deduper, d.Components.Deduper)
	wn := effName(cfg.Components.Writer, d.Components.Writer)

	// 构造实例
	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: reader %q options: %w", rn, err)
	}
	w, err := registry.Writer[wn](cfg.Output, cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: writer %q options: %w", wn, err)
	}
	comp := pipeline.Components{Reader: r, Writer: w}
	if cfg.RemoveDuplicates {
		dd, err := registry.Deduper[dn](cfg.Options.Deduper)
		if err != nil {
			return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: deduper %q options: %w", dn, err)
		}
		comp.Deduper = dd
	}

	set := pipeline.Settings{
		Input:            strings.TrimSpace(cfg.Input),
		Output:           strings.TrimSpace(cfg.Output),
		LinesPerFile:     cfg.LinesPerFile,
		RemoveDuplicates: cfg.RemoveDuplicates,
	}
	return comp, set, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
