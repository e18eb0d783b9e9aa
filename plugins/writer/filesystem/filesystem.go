package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"linesplit/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// OutputDir: 输出根目录（必需）。
	OutputDir string `json:"output_dir"`
	// Atomic: 是否使用原子替换（同目录临时文件 + Close 时 rename）。
	// 默认值：false，即直接截断覆盖目标文件；失败时留下部分内容。
	Atomic *bool `json:"atomic,omitempty"`
	// PermFile/PermDir: 可选权限；为 0 表示使用实现/平台默认。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
	// BufSize: 写缓冲区大小；<=0 使用实现默认。
	BufSize int `json:"buf_size,omitempty"`
}

type FS struct {
	root    string
	atomic  bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

// New 创建文件系统 Writer 实现。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, os.ErrInvalid
	}
	bsz := opts.BufSize
	if bsz <= 0 {
		bsz = 64 * 1024
	}
	pf := opts.PermFile
	if pf == 0 {
		pf = 0o644
	}
	pd := opts.PermDir
	if pd == 0 {
		pd = 0o755
	}
	atomic := false
	if opts.Atomic != nil {
		atomic = *opts.Atomic
	}
	return &FS{root: opts.OutputDir, atomic: atomic, permF: pf, permD: pd, bufSize: bsz}, nil
}

var _ contract.Writer = (*FS)(nil)

// Root 返回输出根目录。
func (w *FS) Root() string { return w.root }

// Prepare 确保输出目录存在；路径存在但不是目录时报错。
func (w *FS) Prepare(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}
	st, err := os.Stat(w.root)
	if err == nil {
		if !st.IsDir() {
			return false, fmt.Errorf("%w: %s is not a directory", contract.ErrOutputDir, w.root)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: %w", contract.ErrOutputDir, err)
	}
	if err := os.MkdirAll(w.root, w.permD); err != nil {
		return false, fmt.Errorf("%w: %w", contract.ErrOutputDir, err)
	}
	return true, nil
}

// Create 打开分片；同名文件被截断覆盖（原子模式下在 Close 时替换）。
func (w *FS) Create(ctx context.Context, name string) (contract.Chunk, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dest, err := w.mapPath(name)
	if err != nil {
		return nil, err
	}
	if w.atomic {
		return w.createAtomic(dest)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return nil, err
	}
	return &chunk{f: f, bw: bufio.NewWriterSize(f, w.bufSize), dest: dest}, nil
}

// mapPath: 分片名只允许单级文件名；Clean + Join + 越界校验。
func (w *FS) mapPath(name string) (string, error) {
	rel := filepath.Clean(name)
	if rel == "." || rel == ".." || rel == "" {
		return "", contract.ErrPathInvalid
	}
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", contract.ErrPathInvalid
	}
	if rel != filepath.Base(rel) || strings.ContainsAny(name, `/\`) {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, rel), nil
}

func (w *FS) createAtomic(dest string) (contract.Chunk, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return nil, err
	}
	// 目标权限：尽量与期望一致
	_ = os.Chmod(tmp.Name(), w.permF)
	return &chunk{f: tmp, bw: bufio.NewWriterSize(tmp, w.bufSize), dest: dest, tmp: tmp.Name()}, nil
}

// chunk 为单个打开的分片；tmp 非空表示原子模式。
type chunk struct {
	f      *os.File
	bw     *bufio.Writer
	dest   string
	tmp    string
	closed bool
}

func (c *chunk) Path() string { return c.dest }

func (c *chunk) WriteLine(line string) error {
	if c.closed {
		return os.ErrClosed
	}
	if _, err := c.bw.WriteString(line); err != nil {
		return err
	}
	return c.bw.WriteByte('\n')
}

func (c *chunk) Close() error {
	if c.closed {
		return os.ErrClosed
	}
	c.closed = true
	if err := c.bw.Flush(); err != nil {
		_ = c.f.Close()
		c.discardTmp()
		return err
	}
	if c.tmp == "" {
		return c.f.Close()
	}
	if err := c.f.Sync(); err != nil {
		_ = c.f.Close()
		c.discardTmp()
		return err
	}
	if err := c.f.Close(); err != nil {
		c.discardTmp()
		return err
	}
	// os.Rename 在 Windows 上使用 MoveFileEx(REPLACE_EXISTING)，可覆盖已存在目标。
	if err := os.Rename(c.tmp, c.dest); err != nil {
		c.discardTmp()
		return err
	}
	// 最佳努力：同步父目录，提升崩溃安全性
	_ = syncDir(filepath.Dir(c.dest))
	return nil
}

func (c *chunk) Abort() error {
	if c.closed {
		return nil
	}
	c.closed = true
	// 非原子模式保留已写入部分（不做清理）
	if c.tmp == "" {
		_ = c.bw.Flush()
		return c.f.Close()
	}
	err := c.f.Close()
	c.discardTmp()
	return err
}

func (c *chunk) discardTmp() {
	if c.tmp != "" {
		_ = os.Remove(c.tmp)
	}
}
