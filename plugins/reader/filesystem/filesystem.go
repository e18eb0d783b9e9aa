package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"linesplit/pkg/contract"
)

const (
	defaultBufSize      = 64 * 1024
	defaultMaxLineBytes = 64 * 1024 * 1024
	// 每读取 ctxCheckEvery 行检查一次取消信号。
	ctxCheckEvery = 1024
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为初始读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// MaxLineBytes: 单行最大字节数；超过时返回 bufio.ErrTooLong。默认 64MiB。
	MaxLineBytes int `json:"max_line_bytes"`
	// InvalidUTF8: 无法解码字节的处理方式。
	// "drop"（默认）丢弃非法字节；"replace" 替换为 U+FFFD。
	InvalidUTF8 string `json:"invalid_utf8"`
}

// FileSystem 实现基于本地文件的行 Reader。
type FileSystem struct {
	bufSize int
	maxLine int
	replace bool
}

// New 创建 FileSystem Reader。
func New(opts *Options) (*FileSystem, error) {
	r := &FileSystem{bufSize: defaultBufSize, maxLine: defaultMaxLineBytes}
	if opts == nil {
		return r, nil
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	if opts.MaxLineBytes > 0 {
		r.maxLine = opts.MaxLineBytes
	}
	switch strings.ToLower(strings.TrimSpace(opts.InvalidUTF8)) {
	case "", "drop":
	case "replace":
		r.replace = true
	default:
		return nil, fmt.Errorf("%w: invalid_utf8 %q", contract.ErrInvalidInput, opts.InvalidUTF8)
	}
	// 初始缓冲不应超过单行上限
	if r.bufSize > r.maxLine {
		r.bufSize = r.maxLine
	}
	return r, nil
}

var _ contract.Reader = (*FileSystem)(nil)

// Lines 打开 path 并按原始顺序对每一行调用 yield。
// 符号链接跟随到目标；目标必须是常规文件。
func (r *FileSystem) Lines(ctx context.Context, path string, yield func(line string) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := checkRegular(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.scan(ctx, f, yield)
}

// Check 确认 path 指向（或经符号链接指向）常规文件。
func (r *FileSystem) Check(ctx context.Context, path string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return checkRegular(path)
}

func checkRegular(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", contract.ErrInputNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", contract.ErrInputNotFound, path)
	}
	return nil
}

func (r *FileSystem) scan(ctx context.Context, f *os.File, yield func(string) error) error {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, r.bufSize), r.maxLine)
	sc.Split(scanLines)
	repl := []byte{}
	if r.replace {
		repl = []byte(string(utf8.RuneError))
	}
	n := 0
	for sc.Scan() {
		n++
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		b := sc.Bytes()
		var line string
		if utf8.Valid(b) {
			line = string(b)
		} else {
			line = string(bytes.ToValidUTF8(b, repl))
		}
		if err := yield(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", f.Name(), err)
	}
	return nil
}

// scanLines 是 bufio.SplitFunc：以 \n、\r\n 或单独的 \r 作为行终止符，
// 每行恰好剥离一个终止符；末行无终止符时原样返回。
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r'：需要看下一个字节才能区分 \r\n 与单独的 \r
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
