package cache

import "testing"

func TestRecencyIndexEvictionOrder(t *testing.T) {
	ix := NewRecencyIndex(4)
	ix.Insert("a", "/a")
	ix.Insert("b", "/b")
	ix.Insert("c", "/c")

	if !ix.Touch("a") {
		t.Fatal("触达已有条目应返回 true")
	}

	id, location, ok := ix.EvictLRU()
	if !ok || id != "b" || location != "/b" {
		t.Fatalf("期望先淘汰 b, 得到: %s %s %v", id, location, ok)
	}
	if id, _, _ = ix.EvictLRU(); id != "c" {
		t.Fatalf("期望淘汰 c, 得到: %s", id)
	}
	if id, _, _ = ix.EvictLRU(); id != "a" {
		t.Fatalf("期望最后淘汰 a, 得到: %s", id)
	}
	if _, _, ok := ix.EvictLRU(); ok {
		t.Fatal("空索引淘汰应返回 false")
	}
}

func TestRecencyIndexInsertOverwrites(t *testing.T) {
	ix := NewRecencyIndex(4)
	ix.Insert("a", "/a")
	ix.Insert("b", "/b")
	ix.Insert("a", "/a2")

	if ix.Len() != 2 {
		t.Fatalf("覆盖插入不应增加条目数: %d", ix.Len())
	}
	if location, _ := ix.Lookup("a"); location != "/a2" {
		t.Fatalf("覆盖后位置未更新: %s", location)
	}
	if id, _, _ := ix.EvictLRU(); id != "b" {
		t.Fatalf("覆盖插入应同时触达条目, 期望淘汰 b, 得到: %s", id)
	}
}

func TestRecencyIndexLookupDoesNotTouch(t *testing.T) {
	ix := NewRecencyIndex(4)
	ix.Insert("a", "/a")
	ix.Insert("b", "/b")

	if _, ok := ix.Lookup("a"); !ok {
		t.Fatal("Lookup 应命中 a")
	}
	if !ix.Contains("a") {
		t.Fatal("Contains 应命中 a")
	}
	if id, _, _ := ix.EvictLRU(); id != "a" {
		t.Fatalf("Lookup 不应影响顺序, 期望淘汰 a, 得到: %s", id)
	}
}

func TestRecencyIndexRemove(t *testing.T) {
	ix := NewRecencyIndex(4)
	ix.Insert("a", "/a")

	if !ix.Remove("a") {
		t.Fatal("移除已有条目应返回 true")
	}
	if ix.Remove("a") {
		t.Fatal("重复移除应返回 false")
	}
	if ix.Len() != 0 || ix.Contains("a") {
		t.Fatal("移除后条目仍然存在")
	}
	if ix.Touch("a") {
		t.Fatal("触达不存在的条目应返回 false")
	}
}

func TestRecencyIndexReset(t *testing.T) {
	ix := NewRecencyIndex(2)
	ix.Insert("a", "/a")
	ix.Insert("b", "/b")

	ix.Reset()

	if ix.Len() != 0 {
		t.Fatalf("重置后条目数应为 0: %d", ix.Len())
	}
	if ix.Capacity() != 2 {
		t.Fatalf("重置不应改变容量: %d", ix.Capacity())
	}
	if _, _, ok := ix.EvictLRU(); ok {
		t.Fatal("重置后不应有可淘汰条目")
	}
}

func TestRecencyIndexNegativeCapacity(t *testing.T) {
	if got := NewRecencyIndex(-3).Capacity(); got != 0 {
		t.Fatalf("负容量应按 0 处理: %d", got)
	}
}
