package digest

import (
	"crypto/sha256"

	"linesplit/pkg/contract"
)

// Options: 摘要集合的可选配置。
type Options struct {
	// InitialCapacity: map 预分配容量提示；<=0 不预分配。
	InitialCapacity int `json:"initial_capacity"`
}

// Set 以 SHA-256 摘要为键的已见集合。
// 每个不同行固定占用 32 字节键，与行长度无关；适合长行输入。
// 语义与精确集合一致（不考虑 SHA-256 碰撞）。
type Set struct {
	m map[[sha256.Size]byte]struct{}
}

// New 创建摘要集合。
func New(opts *Options) *Set {
	n := 0
	if opts != nil && opts.InitialCapacity > 0 {
		n = opts.InitialCapacity
	}
	return &Set{m: make(map[[sha256.Size]byte]struct{}, n)}
}

var _ contract.Deduper = (*Set)(nil)

// Seen 若 line 的摘要已存在返回 true；否则记录并返回 false。
func (s *Set) Seen(line string) bool {
	k := sha256.Sum256([]byte(line))
	if _, ok := s.m[k]; ok {
		return true
	}
	s.m[k] = struct{}{}
	return false
}

func (s *Set) Len() int { return len(s.m) }
