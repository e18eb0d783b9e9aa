package contract

// Deduper: 跨整个输入的已见集合（seen-set）。
// 约束：
// 1) 精确匹配，不做任何归一；
// 2) 单调增长，运行期内不淘汰（内存随不同行数线性增长）；
// 3) 非并发安全，由单一调用方顺序使用。
type Deduper interface {
	// Seen 若 line 已出现过返回 true；否则记录并返回 false。
	Seen(line string) bool
	// Len 返回已记录的不同行数。
	Len() int
}
