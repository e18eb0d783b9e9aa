package contract

// ChunkIndex: 输出分片序号，自 1 起严格递增，不复用。
type ChunkIndex int

// Result: 单次运行的汇总（只读）。
// 约束：
// - Written 为实际写出的行数（去重后）；
// - Chunks 为到达的分片序号（至少为 1，空输入也会产生一个空分片）；
// - Files 与 Chunks 一一对应，按序号升序。
type Result struct {
	Read       int64
	Written    int64
	Duplicates int64
	Chunks     int
	Files      []string
	// Counts: 每个分片的行数（与 Files 对齐）。
	Counts []int64
}
