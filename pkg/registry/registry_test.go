package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFactories 遍历注册表入口。
func TestFactories(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		if _, err := Reader["fs"](json.RawMessage(`{}`)); err != nil {
			t.Fatalf("reader: %v", err)
		}
		if _, err := Reader["fs"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("reader 未对未知字段报错")
		}
		if _, err := Reader["fs"](json.RawMessage(`{"invalid_utf8":"strict"}`)); err == nil {
			t.Fatalf("reader 未对非法取值报错")
		}
	})
	t.Run("deduper", func(t *testing.T) {
		for _, name := range []string{"exact", "digest"} {
			d, err := Deduper[name](json.RawMessage(`{"initial_capacity":8}`))
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			if d.Seen("a") || !d.Seen("a") {
				t.Fatalf("%s: unexpected seen behavior", name)
			}
			if _, err := Deduper[name](json.RawMessage(`{"x":1}`)); err == nil {
				t.Fatalf("%s 未对未知字段报错", name)
			}
		}
	})
	t.Run("writer", func(t *testing.T) {
		tmp := t.TempDir()
		raw := json.RawMessage([]byte(fmt.Sprintf(`{"output_dir":%q}`, tmp)))
		if _, err := Writer["fs"]("", raw); err != nil {
			t.Fatalf("writer: %v", err)
		}
		// 顶层输出目录优先
		if _, err := Writer["fs"](tmp, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("writer with dir: %v", err)
		}
		if _, err := Writer["fs"]("", json.RawMessage(`{}`)); err == nil {
			t.Fatalf("writer 缺少输出目录应报错")
		}
		bad := json.RawMessage([]byte(fmt.Sprintf(`{"output_dir":%q,"x":1}`, tmp)))
		if _, err := Writer["fs"]("", bad); err == nil {
			t.Fatalf("writer 未对未知字段报错")
		}
	})
}

// TestNames 名称按字典序返回
func TestNames(t *testing.T) {
	if got := Names(Deduper); !reflect.DeepEqual(got, []string{"digest", "exact"}) {
		t.Fatalf("names: %v", got)
	}
}
