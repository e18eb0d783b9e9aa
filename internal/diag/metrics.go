package diag

import (
	"sort"
	"sync"
)

// 进程内最小指标：
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - op_duration_ms{comp,stage}（累计）
// 无外部导出；运行结束时由调用方以 debug 日志输出 Snapshot。

var (
	metricsMu sync.Mutex
	counters  = map[string]int64{}
)

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	add("op_total{comp="+comp+",stage="+stage+",result="+result+"}", 1)
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	add("error_total{comp="+comp+",code="+code+"}", 1)
}

// ObserveDuration 累计阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	add("op_duration_ms{comp="+comp+",stage="+stage+"}", durMS)
}

func add(key string, v int64) {
	metricsMu.Lock()
	counters[key] += v
	metricsMu.Unlock()
}

// Metric 为单个指标快照项。
type Metric struct {
	Name  string
	Value int64
}

// Snapshot 返回当前指标（按名称排序）。
func Snapshot() []Metric {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	out := make([]Metric, 0, len(counters))
	for k, v := range counters {
		out = append(out, Metric{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResetMetrics 清空全部指标（测试用）。
func ResetMetrics() {
	metricsMu.Lock()
	counters = map[string]int64{}
	metricsMu.Unlock()
}
