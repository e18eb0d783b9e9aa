package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	// Off 关闭全部日志输出。
	Off
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	case Off:
		return "off"
	default:
		return "info"
	}
}

// Logger 为最小结构化日志器：单行 JSON 输出到轮转文件或 stderr；支持级别过滤。
type Logger struct {
	corrID string
	level  Level
	sink   *RotatingFile
	out    io.Writer
	mu     sync.Mutex
}

// NewLogger 通过配置的 level 初始化。
// dir 非空时写入该目录下的轮转文件（10MiB 轮转）；否则写 stderr。
func NewLogger(corrID, level, dir string) *Logger {
	l := &Logger{corrID: corrID, level: ParseLevel(level), out: os.Stderr}
	if d := strings.TrimSpace(dir); d != "" {
		l.sink = NewRotatingFile(d, defaultLogMaxBytes)
	}
	return l
}

// ParseLevel 解析级别名；未知值按 warn 处理。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info":
		return Info
	case "error":
		return Error
	case "off", "none":
		return Off
	default:
		return Warn
	}
}

// ValidLevel 判断级别名是否可识别（空串视为合法，表示默认）。
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "error", "off", "none":
		return true
	}
	return false
}

// Enabled 判断某级别是否会被输出。
func (l *Logger) Enabled(lv Level) bool { return l != nil && lv >= l.level && l.level != Off }

// Close 释放文件 sink。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Event 为标准事件结构。
type Event struct {
	Level  string            `json:"level"`
	TS     string            `json:"ts"`
	CorrID string            `json:"corr_id"`
	Comp   string            `json:"comp"`
	Stage  string            `json:"stage"` // start|finish|error|info
	Code   string            `json:"code,omitempty"`
	DurMS  int64             `json:"dur_ms,omitempty"`
	Count  int64             `json:"count,omitempty"`
	Chunk  string            `json:"chunk,omitempty"`
	Msg    string            `json:"msg"`
	KV     map[string]string `json:"kv,omitempty"`
}

// log 以最小开销写出事件，遵循级别过滤。
func (l *Logger) log(lv Level, ev Event) {
	if !l.Enabled(lv) {
		return
	}
	ev.Level = lv.String()
	ev.TS = NowUTC()
	ev.CorrID = l.corrID
	b, _ := json.Marshal(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		_, _ = l.out.Write(append(b, '\n'))
		return
	}
	if err := l.sink.WriteLine(b); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(append(b, '\n'))
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Msg: msg})
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 chunk 的 start。
func (l *Logger) StartWith(comp, msg, chunk string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Chunk: chunk, Msg: msg})
	return &Timer{l: l, comp: comp, chunk: chunk, t0: time.Now()}
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWith(comp, code, msg, durSince, "")
}

// ErrorWith 支持 chunk。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, chunk string) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: dur, Msg: msg, Chunk: chunk})
}

// Warn 记录 warn 事件（附带键值）。
func (l *Logger) Warn(comp, msg string, kv map[string]string) {
	l.log(Warn, Event{Comp: comp, Stage: "info", Msg: msg, KV: kv})
}

// InfoFinish 在已有起点的情况下记录 finish。
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.log(Info, Event{Comp: comp, Stage: "finish", DurMS: time.Since(start).Milliseconds(), Count: count, Msg: msg})
}

// DebugKV 输出调试级别事件（仅在 level=debug 时生效）。
func (l *Logger) DebugKV(comp, msg, chunk string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "info", Chunk: chunk, Msg: msg, KV: kv})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l     *Logger
	comp  string
	chunk string
	t0    time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, Chunk: t.chunk, Msg: msg})
}
