package contract

import "context"

// Writer: 将分片以流式方式持久化到目标目录。
// 约束：
//  1. 同一时刻仅持有一个打开的 Chunk（调用方保证先 Close 再 Create）；
//  2. 同名目标直接覆盖，不做提示；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛（不做重试/回退/清理已完成分片）。
type Writer interface {
	// Prepare 确保输出目录存在（递归创建）；created 表示本次是否新建。
	Prepare(ctx context.Context) (created bool, err error)
	// Create 打开名为 name 的分片（相对输出目录的文件名）。
	Create(ctx context.Context, name string) (Chunk, error)
}

// Chunk: 单个打开的输出分片。
type Chunk interface {
	// WriteLine 写入 line 与一个换行符。
	WriteLine(line string) error
	// Close 刷新并提交分片。
	Close() error
	// Abort 在失败路径上释放句柄；不保证已写内容被保留或移除。
	Abort() error
	// Path 返回分片最终落盘路径。
	Path() string
}
