package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "linesplit/internal/config"
	"linesplit/internal/diag"
	"linesplit/internal/pipeline"
	"linesplit/pkg/contract"
)

func resetFlag(args []string) {
	os.Args = args
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

// stubRun 替换 pipelineRun 并在测试结束时恢复。
func stubRun(t *testing.T, fn func(pipeline.Settings) (contract.Result, error)) *bool {
	t.Helper()
	called := false
	orig := pipelineRun
	pipelineRun = func(ctx context.Context, comp pipeline.Components, set pipeline.Settings, logger *diag.Logger) (contract.Result, error) {
		called = true
		return fn(set)
	}
	t.Cleanup(func() { pipelineRun = orig })
	return &called
}

func ok(pipeline.Settings) (contract.Result, error) { return contract.Result{Chunks: 1}, nil }

func TestWriteConfig(t *testing.T) {
	cfg := cfgpkg.Defaults()
	file := filepath.Join(t.TempDir(), "c.json")
	if err := writeConfig(file, cfg); err != nil {
		t.Fatalf("writeConfig file: %v", err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if err := writeConfig(file, cfg); !errors.Is(err, os.ErrExist) {
		t.Fatalf("existing file must not be overwritten, got %v", err)
	}
	r, w, _ := os.Pipe()
	old := os.Stdout
	os.Stdout = w
	if err := writeConfig("-", cfg); err != nil {
		t.Fatalf("writeConfig stdout: %v", err)
	}
	w.Close()
	os.Stdout = old
	r.Close()
}

func TestNormalizeInitArg(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"x", "-init-config"}, []string{"x", "-init-config", "."}},
		{[]string{"x", "--init-config", "-status=false"}, []string{"x", "--init-config", ".", "-status=false"}},
		{[]string{"x", "-init-config", "dir"}, []string{"x", "-init-config", "dir"}},
		{[]string{"x", "-init-config=dir"}, []string{"x", "-init-config=dir"}},
	}
	saved := os.Args
	defer func() { os.Args = saved }()
	for _, tc := range cases {
		os.Args = tc.in
		normalizeInitArg()
		if strings.Join(os.Args, " ") != strings.Join(tc.want, " ") {
			t.Errorf("normalize %v = %v, want %v", tc.in, os.Args, tc.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		res  contract.Result
		want int
	}{
		{fmt.Errorf("reader check: %w", contract.ErrInputNotFound), contract.Result{}, 3},
		{fmt.Errorf("writer prepare: %w", contract.ErrOutputDir), contract.Result{}, 3},
		{fmt.Errorf("writer create: %w", contract.ErrOutputDir), contract.Result{Chunks: 2}, 1},
		{errors.New("boom"), contract.Result{}, 1},
		{context.Canceled, contract.Result{Chunks: 1}, 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err, tc.res); got != tc.want {
			t.Errorf("exitCode(%v)=%d want %d", tc.err, got, tc.want)
		}
	}
}

func TestRunInitConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	outDir := filepath.Join(dir, "emit")
	resetFlag([]string{"linesplit", "-init-config", outDir})
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	b, err := os.ReadFile(filepath.Join(outDir, "config.json"))
	if err != nil {
		t.Fatalf("config not generated: %v", err)
	}
	if _, err := cfgpkg.LoadJSON("", b); err != nil {
		t.Fatalf("generated config must load strictly: %v", err)
	}
}

func TestRunInitConfigDefault(t *testing.T) {
	chdir(t, t.TempDir())
	resetFlag([]string{"linesplit", "-init-config"})
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	if _, err := os.Stat("config.json"); err != nil {
		t.Fatalf("config not written: %v", err)
	}
}

func TestRunInitConfigFileExists(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}
	resetFlag([]string{"linesplit", "-init-config", dir})
	if code := run(); code != 3 {
		t.Fatalf("expect 3, got %d", code)
	}
}

func TestRunMissingRequired(t *testing.T) {
	chdir(t, t.TempDir())
	for _, args := range [][]string{
		{"linesplit"},
		{"linesplit", "-input", "a.txt"},
		{"linesplit", "-output", "out"},
	} {
		resetFlag(args)
		called := stubRun(t, ok)
		if code := run(); code != 3 {
			t.Fatalf("%v: expect 3, got %d", args, code)
		}
		if *called {
			t.Fatalf("%v: pipeline must not run", args)
		}
	}
}

func TestRunBadFlag(t *testing.T) {
	chdir(t, t.TempDir())
	old := os.Stdout
	os.Stdout = devNull(t)
	defer func() { os.Stdout = old }()
	resetFlag([]string{"linesplit", "-nope"})
	if code := run(); code != 2 {
		t.Fatalf("expect 2, got %d", code)
	}
	resetFlag([]string{"linesplit", "-input", "a", "-output", "o", "extra"})
	if code := run(); code != 2 {
		t.Fatalf("positional args: expect 2, got %d", code)
	}
}

func TestRunInvalidLPF(t *testing.T) {
	chdir(t, t.TempDir())
	for _, v := range []string{"0", "-5"} {
		resetFlag([]string{"linesplit", "-input", "a.txt", "-output", "out", "-LPF", v})
		called := stubRun(t, ok)
		if code := run(); code != 3 {
			t.Fatalf("LPF=%s: expect 3, got %d", v, code)
		}
		if *called {
			t.Fatalf("LPF=%s: pipeline must not run", v)
		}
	}
}

func TestRunFlagsApplied(t *testing.T) {
	chdir(t, t.TempDir())
	resetFlag([]string{"linesplit", "-input", "emails.txt", "-output", "parts", "-LPF", "7", "-removeDuplicates", "-status=false"})
	var got pipeline.Settings
	called := stubRun(t, func(s pipeline.Settings) (contract.Result, error) { got = s; return contract.Result{Chunks: 1}, nil })
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	if !*called {
		t.Fatalf("pipelineRun not called")
	}
	if got.Input != "emails.txt" || got.Output != "parts" || got.LinesPerFile != 7 || !got.RemoveDuplicates {
		t.Fatalf("flags not applied: %+v", got)
	}
}

func TestRunDefaultLPF(t *testing.T) {
	chdir(t, t.TempDir())
	resetFlag([]string{"linesplit", "-input", "a.txt", "-output", "out", "-status=false"})
	var got pipeline.Settings
	stubRun(t, func(s pipeline.Settings) (contract.Result, error) { got = s; return contract.Result{}, nil })
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	if got.LinesPerFile != cfgpkg.DefaultLinesPerFile || got.RemoveDuplicates {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestRunConfigFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Input = "from-json.txt"
	cfg.LinesPerFile = 50
	cfg.RemoveDuplicates = true
	b, _ := json.Marshal(cfg)
	path := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// CLI 覆盖 JSON；显式 false 也能关闭去重
	resetFlag([]string{"linesplit", "-config", path, "-input", "cli.txt", "-removeDuplicates=false", "-status=false"})
	var got pipeline.Settings
	stubRun(t, func(s pipeline.Settings) (contract.Result, error) { got = s; return contract.Result{}, nil })
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	if got.Input != "cli.txt" || got.Output != "out" || got.LinesPerFile != 50 || got.RemoveDuplicates {
		t.Fatalf("precedence wrong: %+v", got)
	}
}

func TestRunDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Dir = filepath.Join(dir, "logs")
	b, _ := json.Marshal(cfg)
	if err := os.WriteFile("config.json", b, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	resetFlag([]string{"linesplit", "-status=false"})
	called := stubRun(t, ok)
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	if !*called {
		t.Fatalf("pipelineRun not called")
	}
	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("debug logs expected in logging.dir: %v", err)
	}
}

func TestRunConfigFileNotFound(t *testing.T) {
	chdir(t, t.TempDir())
	resetFlag([]string{"linesplit", "-config", "missing.json"})
	if code := run(); code != 3 {
		t.Fatalf("expect 3, got %d", code)
	}
}

func TestRunAssembleError(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Options.Reader = json.RawMessage(`{"unknown":1}`)
	b, _ := json.Marshal(cfg)
	if err := os.WriteFile("config.json", b, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	resetFlag([]string{"linesplit"})
	if code := run(); code != 3 {
		t.Fatalf("expect 3, got %d", code)
	}
}

func TestRunPipelineError(t *testing.T) {
	chdir(t, t.TempDir())
	resetFlag([]string{"linesplit", "-input", "a.txt", "-output", "out", "-status=false"})
	stubRun(t, func(pipeline.Settings) (contract.Result, error) {
		return contract.Result{Chunks: 1}, errors.New("boom")
	})
	if code := run(); code != 1 {
		t.Fatalf("expect 1, got %d", code)
	}
}

// 端到端：真实组件
func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	in := filepath.Join(dir, "names.txt")
	if err := os.WriteFile(in, []byte("a\nb\na\nc\nd\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "parts")
	resetFlag([]string{"linesplit", "-input", in, "-output", out, "-LPF", "2", "-removeDuplicates", "-status=false"})
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	want := map[string]string{"names_Part1.txt": "a\nb\n", "names_Part2.txt": "c\nd\n"}
	entries, _ := os.ReadDir(out)
	if len(entries) != len(want) {
		t.Fatalf("unexpected files: %v", entries)
	}
	for name, body := range want {
		b, err := os.ReadFile(filepath.Join(out, name))
		if err != nil || string(b) != body {
			t.Fatalf("%s = %q (%v), want %q", name, b, err, body)
		}
	}
}

func TestRunInputNotFound(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	out := filepath.Join(dir, "parts")
	resetFlag([]string{"linesplit", "-input", filepath.Join(dir, "nope.txt"), "-output", out, "-status=false"})
	if code := run(); code != 3 {
		t.Fatalf("expect 3, got %d", code)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output folder must not be created: %v", err)
	}
}

func devNull(t *testing.T) *os.File {
	t.Helper()
	f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open devnull: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRunHelp(t *testing.T) {
	chdir(t, t.TempDir())
	old := os.Stdout
	os.Stdout = devNull(t)
	defer func() { os.Stdout = old }()
	resetFlag([]string{"linesplit", "-h"})
	called := stubRun(t, ok)
	if code := run(); code != 0 {
		t.Fatalf("expect 0, got %d", code)
	}
	if *called {
		t.Fatalf("help must not run the pipeline")
	}
}
