package contract

import "errors"

// 最小错误分类（哨兵）。
var (
	// ErrInputNotFound: 输入路径不存在或不是常规文件。
	ErrInputNotFound = errors.New("input not found")
	// ErrOutputDir: 输出目录不存在且无法创建，或路径存在但不是目录。
	ErrOutputDir = errors.New("output directory unavailable")
	// ErrPathInvalid: 分片名映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvalidInput: 参数不合法（例如 LPF < 1）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)
