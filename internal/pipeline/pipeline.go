package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"linesplit/internal/diag"
	"linesplit/pkg/contract"
)

// - 单线程、同步：仅有阻塞 I/O，无并发；任意时刻最多一个输入句柄与一个输出句柄。
// - 首错终止：任一阶段出错立即返回；已写完的分片保留，正在写的分片交由 Writer.Abort 处理。
// - 去重集合（若启用）随不同行数线性增长且从不淘汰：内存上界约为全部不同行的总大小，
//   输入不同行数很大时可改用 digest 实现（每行固定 32 字节键）。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader contract.Reader
	// Deduper 仅在 Settings.RemoveDuplicates 时使用。
	Deduper contract.Deduper
	Writer  contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Input string
	// Output 仅用于提示信息；实际落盘位置由 Writer 决定。
	Output           string
	LinesPerFile     int
	RemoveDuplicates bool
}

// Run 执行：预检输入 → 准备输出目录 → 打开分片 1 → 逐行（去重）写出并按 LinesPerFile 轮转 → 关闭末分片。
// 约束：
// - 分片 1 在读取任何输入之前创建（空输入也会产生一个空分片）；
// - 后续分片仅在轮转后有新行到来时才创建，末分片行数在 [1,LinesPerFile]；
// - 返回的 Result 在出错时也反映已完成的部分。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (contract.Result, error) {
	if err := sanity(comp, set); err != nil {
		return contract.Result{}, fmt.Errorf("sanity: %w", err)
	}
	start := time.Now()

	if err := comp.Reader.Check(ctx, set.Input); err != nil {
		fail(logger, "reader", err, "")
		return contract.Result{}, fmt.Errorf("reader check: %w", err)
	}
	created, err := comp.Writer.Prepare(ctx)
	if err != nil {
		fail(logger, "writer", err, "")
		return contract.Result{}, fmt.Errorf("writer prepare: %w", err)
	}
	term := diag.GetTerminal()
	if created {
		term.FolderCreated(set.Output)
		logger.Warn("writer", "output folder created", map[string]string{"dir": set.Output})
	}
	term.RunStart(set.Input)

	s := &splitter{
		ctx:    ctx,
		w:      comp.Writer,
		lpf:    int64(set.LinesPerFile),
		stem:   contract.InputStem(set.Input),
		logger: logger,
		term:   term,
	}
	if set.RemoveDuplicates {
		s.dedup = comp.Deduper
	}
	if err := s.open(); err != nil {
		return s.res, err
	}
	rtimer := logger.Start("reader", "lines")
	if err := comp.Reader.Lines(ctx, set.Input, s.push); err != nil {
		s.abort()
		// 写出侧错误已在 push 内记录
		var we *writeError
		if !errors.As(err, &we) {
			fail(logger, "reader", err, "")
			return s.res, fmt.Errorf("reader lines: %w", err)
		}
		return s.res, err
	}
	rtimer.Finish("lines", s.res.Read)
	diag.IncOp("reader", "finish", "success")
	if s.cur != nil {
		if err := s.close(); err != nil {
			return s.res, err
		}
	}

	if err := contract.ValidateCounts(s.res.Counts, set.LinesPerFile, s.res.Written); err != nil {
		fail(logger, "pipeline", err, "")
		return s.res, err
	}
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())
	if logger.Enabled(diag.Debug) {
		kv := map[string]string{
			"read":       strconv.FormatInt(s.res.Read, 10),
			"written":    strconv.FormatInt(s.res.Written, 10),
			"duplicates": strconv.FormatInt(s.res.Duplicates, 10),
			"chunks":     strconv.Itoa(s.res.Chunks),
		}
		if s.dedup != nil {
			kv["distinct"] = strconv.Itoa(s.dedup.Len())
		}
		logger.DebugKV("pipeline", "summary", "", kv)
	}
	return s.res, nil
}

// splitter 持有单次运行的瞬时状态（当前分片、分片内计数、累计计数）。
type splitter struct {
	ctx    context.Context
	w      contract.Writer
	dedup  contract.Deduper
	lpf    int64
	stem   string
	logger *diag.Logger
	term   *diag.Terminal

	cur     contract.Chunk
	curName string
	inChunk int64
	ctimer  *diag.Timer
	res     contract.Result
}

// writeError 标记来自写出侧的错误（已记录日志）。
type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func (s *splitter) push(line string) error {
	s.res.Read++
	if s.dedup != nil && s.dedup.Seen(line) {
		s.res.Duplicates++
		return nil
	}
	if s.cur == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	if err := s.cur.WriteLine(line); err != nil {
		fail(s.logger, "writer", err, s.curName)
		return &writeError{fmt.Errorf("writer write %s: %w", s.curName, err)}
	}
	s.inChunk++
	s.res.Written++
	if s.inChunk >= s.lpf {
		idx := s.res.Chunks
		if err := s.close(); err != nil {
			return err
		}
		s.term.ChunkDone(idx, s.res.Written)
	}
	return nil
}

func (s *splitter) open() error {
	idx := s.res.Chunks + 1
	name := contract.ChunkName(s.stem, contract.ChunkIndex(idx))
	c, err := s.w.Create(s.ctx, name)
	if err != nil {
		fail(s.logger, "writer", err, name)
		return &writeError{fmt.Errorf("writer create %s: %w", name, err)}
	}
	s.ctimer = s.logger.StartWith("writer", "create", name)
	s.cur, s.curName, s.inChunk = c, name, 0
	s.res.Chunks = idx
	s.res.Files = append(s.res.Files, c.Path())
	return nil
}

func (s *splitter) close() error {
	c := s.cur
	s.cur = nil
	s.res.Counts = append(s.res.Counts, s.inChunk)
	if err := c.Close(); err != nil {
		fail(s.logger, "writer", err, s.curName)
		return &writeError{fmt.Errorf("writer close %s: %w", s.curName, err)}
	}
	s.ctimer.Finish("close", s.inChunk)
	diag.IncOp("writer", "finish", "success")
	return nil
}

func (s *splitter) abort() {
	if s.cur == nil {
		return
	}
	_ = s.cur.Abort()
	s.cur = nil
	s.res.Counts = append(s.res.Counts, s.inChunk)
}

// fail 记录错误事件与指标。
func fail(logger *diag.Logger, comp string, err error, chunk string) {
	code := diag.Classify(err)
	logger.ErrorWith(comp, string(code), err.Error(), nil, chunk)
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
}

func sanity(c Components, s Settings) error {
	if c.Reader == nil || c.Writer == nil {
		return errors.New("pipeline: missing components")
	}
	if s.RemoveDuplicates && c.Deduper == nil {
		return errors.New("pipeline: duplicate removal requires a deduper")
	}
	if s.Input == "" {
		return errors.New("pipeline: empty input")
	}
	if s.LinesPerFile < 1 {
		return fmt.Errorf("pipeline: %w: lines per file must be >= 1, got %d", contract.ErrInvalidInput, s.LinesPerFile)
	}
	return nil
}
