package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	cfgpkg "linesplit/internal/config"
	"linesplit/internal/diag"
	"linesplit/internal/pipeline"
	"linesplit/pkg/contract"
)

var pipelineRun = pipeline.Run

// 简化的 CLI：单一动作 split。
// 必需旗标：-input 与 -output；-LPF 与 -removeDuplicates 可选。
// 其余旗标（-config, -init-config, -log-level, -status）为运行环境辅助。
func main() {
	os.Exit(run())
}

func run() int {
	code := 0
	app := newApp(func(c *cli.Context) error {
		code = split(c)
		return nil
	})
	normalizeInitArg()
	// 旗标解析失败时 urfave/cli 已打印用法
	if err := app.Run(os.Args); err != nil {
		return 2
	}
	return code
}

func newApp(action cli.ActionFunc) *cli.App {
	app := cli.NewApp()
	app.Name = "linesplit"
	app.Usage = "split a large text file into numbered parts of at most -LPF lines"
	app.UsageText = "linesplit -input <file> -output <folder> [-LPF n] [-removeDuplicates]"
	app.HideVersion = true
	app.Writer = os.Stdout
	app.ErrWriter = os.Stdout
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "input", Usage: "input text file path (required)"},
		cli.StringFlag{Name: "output", Usage: "output folder for the parts (required; created if missing)"},
		cli.IntFlag{Name: "LPF", Value: cfgpkg.DefaultLinesPerFile, Usage: "maximum lines per output file (>= 1)"},
		cli.BoolFlag{Name: "removeDuplicates", Usage: "drop lines already seen anywhere earlier in the input"},
		cli.StringFlag{Name: "config", Usage: "JSON config path; ./config.json is read when present"},
		cli.StringFlag{Name: "init-config", Usage: "write a template config.json into the given folder (default .) and exit; never overwrites"},
		cli.StringFlag{Name: "log-level", Usage: "diagnostic log level: debug|info|warn|error|off"},
		cli.BoolTFlag{Name: "status", Usage: "print progress messages to stdout (default true)"},
	}
	app.Action = action
	return app
}

// split 执行一次完整运行并返回进程退出码。
func split(c *cli.Context) int {
	start := time.Now()
	corrID := genCorrID()
	// 先以默认级别占位，解析/合并配置后按最终 level 重建
	logger := diag.NewLogger(corrID, cfgpkg.Defaults().Logging.Level, "")
	if c.NArg() > 0 {
		printf("error: unexpected arguments: %s\n", strings.Join(c.Args(), " "))
		return 2
	}

	// -init-config: 生成模板并退出
	if initDir := strings.TrimSpace(c.String("init-config")); initDir != "" {
		if err := os.MkdirAll(initDir, 0o755); err != nil {
			printf("error: cannot create config folder: %v\n", err)
			logger.Error("config", string(diag.Classify(err)), "init config", &start)
			return 3
		}
		cfgPath := filepath.Join(initDir, "config.json")
		if err := writeConfig(cfgPath, cfgpkg.DefaultTemplateConfig()); err != nil {
			printf("error: cannot write default config: %v\n", err)
			logger.Error("config", string(diag.Classify(err)), "init config", &start)
			return 3
		}
		printf("wrote %s\n", cfgPath)
		return 0
	}

	// 默认读取工作目录下 config.json（若存在）
	cfgFile := c.String("config")
	if cfgFile == "" {
		if _, err := os.Stat("config.json"); err == nil {
			cfgFile = "config.json"
		}
	}
	cfg := cfgpkg.Defaults()
	if cfgFile != "" {
		base, err := cfgpkg.LoadJSON(cfgFile, nil)
		if err != nil {
			printf("error: cannot parse config %s: %v\n", cfgFile, err)
			logger.Error("config", string(diag.Classify(err)), "load config", &start)
			return 3
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	// CLI 覆盖：仅显式给出的旗标生效（允许显式写入零值，交由校验报错）
	cfg = cfgpkg.Merge(cfg, cfgpkg.Config{
		Input:   c.String("input"),
		Output:  c.String("output"),
		Logging: cfgpkg.Logging{Level: c.String("log-level")},
	})
	if c.IsSet("LPF") {
		cfg.LinesPerFile = c.Int("LPF")
	}
	if c.IsSet("removeDuplicates") {
		cfg.RemoveDuplicates = c.Bool("removeDuplicates")
	}

	if err := cfgpkg.Validate(cfg); err != nil {
		printf("error: %v\n", err)
		if strings.TrimSpace(cfg.Input) == "" || strings.TrimSpace(cfg.Output) == "" {
			_ = cli.ShowAppHelp(c)
		}
		logger.Error("config", string(diag.Classify(err)), "validate", &start)
		return 3
	}

	// 使用最终配置中的日志级别与目录重建 logger
	logger = diag.NewLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir)
	defer logger.Close()

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		printf("error: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "assemble", &start)
		return 3
	}

	// 终端信息提示（非日志）：按 CLI 启用，默认开启
	term := diag.NewTerminal(os.Stdout, c.BoolT("status"))
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	if logger.Enabled(diag.Debug) {
		logger.DebugKV("config", "effective", "", map[string]string{
			"input":             set.Input,
			"output":            set.Output,
			"lines_per_file":    strconv.Itoa(set.LinesPerFile),
			"remove_duplicates": strconv.FormatBool(set.RemoveDuplicates),
			"reader":            cfg.Components.Reader,
			"deduper":           cfg.Components.Deduper,
			"writer":            cfg.Components.Writer,
			"config":            cfgFile,
		})
	}

	// Ctrl-C / SIGTERM：取消上下文，当前分片按出错处理
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := logger.Start("pipeline", "run")
	res, err := pipelineRun(ctx, comp, set, logger)
	defer dumpMetrics(logger)
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error", &start)
		term.RunFinish(false, res.Chunks, res.Written, time.Since(start))
		if errors.Is(err, context.Canceled) {
			printf("error: interrupted after %d lines\n", res.Written)
		} else {
			printf("error: %v\n", err)
		}
		return exitCode(err, res)
	}
	t.Finish("run", res.Written)
	diag.IncOp("pipeline", "finish", "success")
	term.RunFinish(true, res.Chunks, res.Written, time.Since(start))
	return 0
}

// exitCode: 预检类失败（输入缺失、输出目录不可用且尚未写出任何分片）为 3，其余运行期错误为 1。
func exitCode(err error, res contract.Result) int {
	switch {
	case errors.Is(err, contract.ErrInputNotFound):
		return 3
	case errors.Is(err, contract.ErrOutputDir) && res.Chunks == 0:
		return 3
	default:
		return 1
	}
}

func printf(format string, a ...any) { _, _ = fmt.Fprintf(os.Stdout, format, a...) }

// dumpMetrics 在 debug 级别输出进程内指标快照。
func dumpMetrics(logger *diag.Logger) {
	if !logger.Enabled(diag.Debug) {
		return
	}
	kv := map[string]string{}
	for _, m := range diag.Snapshot() {
		kv[m.Name] = strconv.FormatInt(m.Value, 10)
	}
	logger.DebugKV("pipeline", "metrics", "", kv)
}

func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	// 不覆盖已存在文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	_, err = f.Write([]byte("\n"))
	return err
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}

// normalizeInitArg: 允许 -init-config 在未提供路径值时采用默认值当前目录 "."。
// 兼容以下形式：
//
//	-init-config                => 等价于 -init-config .
//	-init-config=out
//	-init-config out
//
// 仅在检测到“裸开关或后继为下一个开关”的情况下插入默认值。
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}
