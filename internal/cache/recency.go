package cache

import "container/list"

// RecencyIndex 维护 identifier 到存储位置的有序映射，按最近使用程度从新到旧排列。
// 顺序完全由显式的 Touch/Insert 调用决定，不参考文件 mtime。自身不做并发保护，
// 由 Cache 以单把互斥锁串行访问。
type RecencyIndex struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List // Front 为最近使用端。
}

type indexEntry struct {
	identifier string
	location   string
}

// NewRecencyIndex 构造容量为 capacity 的空索引，capacity 小于 0 时按 0 处理。
func NewRecencyIndex(capacity int) *RecencyIndex {
	if capacity < 0 {
		capacity = 0
	}
	return &RecencyIndex{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Touch 将已存在的条目移到最近使用端，条目不存在时返回 false。O(1)。
func (ix *RecencyIndex) Touch(identifier string) bool {
	el, ok := ix.entries[identifier]
	if !ok {
		return false
	}
	ix.order.MoveToFront(el)
	return true
}

// Insert 登记条目并视为一次使用：identifier 已存在时更新其存储位置并移到
// 最近使用端，否则在最近使用端新建条目。容量控制由调用方负责。
func (ix *RecencyIndex) Insert(identifier, location string) {
	if el, ok := ix.entries[identifier]; ok {
		el.Value.(*indexEntry).location = location
		ix.order.MoveToFront(el)
		return
	}
	ix.entries[identifier] = ix.order.PushFront(&indexEntry{identifier: identifier, location: location})
}

// EvictLRU 摘除并返回最久未使用的条目；索引为空时 ok 为 false。O(1)。
func (ix *RecencyIndex) EvictLRU() (identifier, location string, ok bool) {
	el := ix.order.Back()
	if el == nil {
		return "", "", false
	}

	entry := el.Value.(*indexEntry)
	ix.order.Remove(el)
	delete(ix.entries, entry.identifier)
	return entry.identifier, entry.location, true
}

// Remove 摘除指定条目，返回条目此前是否存在。
func (ix *RecencyIndex) Remove(identifier string) bool {
	el, ok := ix.entries[identifier]
	if !ok {
		return false
	}
	ix.order.Remove(el)
	delete(ix.entries, identifier)
	return true
}

// Lookup 返回条目的存储位置，不影响新旧顺序。
func (ix *RecencyIndex) Lookup(identifier string) (string, bool) {
	el, ok := ix.entries[identifier]
	if !ok {
		return "", false
	}
	return el.Value.(*indexEntry).location, true
}

// Contains 报告条目是否存在，不影响新旧顺序。
func (ix *RecencyIndex) Contains(identifier string) bool {
	_, ok := ix.entries[identifier]
	return ok
}

// Len 返回当前条目数。
func (ix *RecencyIndex) Len() int {
	return ix.order.Len()
}

// Capacity 返回配置的容量上限。
func (ix *RecencyIndex) Capacity() int {
	return ix.capacity
}

// Reset 清空全部条目，容量保持不变。
func (ix *RecencyIndex) Reset() {
	ix.entries = make(map[string]*list.Element)
	ix.order.Init()
}
