package contract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// InputStem 返回输入文件基名去掉最后一个扩展名后的部分。
// 规则：
// - "data.txt" → "data"；"a.tar.gz" → "a.tar"；
// - 前导点不视为扩展名分隔符：".bashrc" → ".bashrc"；
// - 以点结尾的名称去掉该点："a." → "a"。
func InputStem(p string) string {
	base := filepath.Base(p)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base
	}
	if strings.TrimLeft(base[:i], ".") == "" {
		return base
	}
	return base[:i]
}

// ChunkName 生成分片文件名：{stem}_Part{idx}.txt。
func ChunkName(stem string, idx ChunkIndex) string {
	return fmt.Sprintf("%s_Part%d.txt", stem, idx)
}
