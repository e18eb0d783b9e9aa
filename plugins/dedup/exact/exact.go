package exact

import "linesplit/pkg/contract"

// Options: 精确集合的可选配置。
type Options struct {
	// InitialCapacity: map 预分配容量提示；<=0 不预分配。
	InitialCapacity int `json:"initial_capacity"`
}

// Set 以行内容本身为键的已见集合。
// 内存占用约为 Σ(不同行字节数) + 每项常数开销；运行期内不淘汰。
type Set struct {
	m map[string]struct{}
}

// New 创建精确集合。
func New(opts *Options) *Set {
	n := 0
	if opts != nil && opts.InitialCapacity > 0 {
		n = opts.InitialCapacity
	}
	return &Set{m: make(map[string]struct{}, n)}
}

var _ contract.Deduper = (*Set)(nil)

// Seen 若 line 已存在返回 true；否则记录并返回 false。
func (s *Set) Seen(line string) bool {
	if _, ok := s.m[line]; ok {
		return true
	}
	s.m[line] = struct{}{}
	return false
}

func (s *Set) Len() int { return len(s.m) }
