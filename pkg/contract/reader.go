package contract

import "context"

// Reader: 行输入源抽象。
// 约束：
// 1) 流式读取，按原始顺序逐行回调；
// 2) 每行恰好剥离一个行终止符（\n、\r\n 或单独的 \r）；
// 3) 无法解码的字节不导致失败（丢弃或替换，由实现决定）；
// 4) 输入路径必须指向常规文件，否则返回 ErrInputNotFound；
// 5) 不在内部起并发。
type Reader interface {
	// Check 预检输入是否可读（在产生任何输出之前调用）。
	Check(ctx context.Context, path string) error
	Lines(ctx context.Context, path string, yield func(line string) error) error
}
