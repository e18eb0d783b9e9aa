package contract

import "fmt"

// ValidateCounts 校验分片行数序列是否满足分片不变量（纯函数，无 I/O）：
// - 至少一个分片；
// - 除最后一个外，每个分片恰为 lpf 行；
// - 最后一个分片在 [1,lpf] 之间；仅当总数为 0 时允许唯一的空分片；
// - 行数之和等于 written。
func ValidateCounts(counts []int64, lpf int, written int64) error {
	if lpf < 1 {
		return fmt.Errorf("%w: lines per file %d", ErrInvalidInput, lpf)
	}
	if len(counts) == 0 {
		return fmt.Errorf("%w: no chunk produced", ErrInvariantViolation)
	}
	var sum int64
	last := len(counts) - 1
	for i, c := range counts {
		sum += c
		if i < last && c != int64(lpf) {
			return fmt.Errorf("%w: chunk %d has %d lines, want %d", ErrInvariantViolation, i+1, c, lpf)
		}
	}
	tail := counts[last]
	if tail > int64(lpf) || tail < 0 {
		return fmt.Errorf("%w: last chunk has %d lines", ErrInvariantViolation, tail)
	}
	if tail == 0 && written != 0 {
		return fmt.Errorf("%w: trailing empty chunk", ErrInvariantViolation)
	}
	if sum != written {
		return fmt.Errorf("%w: chunk lines %d != written %d", ErrInvariantViolation, sum, written)
	}
	return nil
}
