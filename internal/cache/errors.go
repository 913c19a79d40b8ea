package cache

import "fmt"

// WriteError 表示 blob 落盘失败，缓存状态保持原样。
type WriteError struct {
	Key CacheKey
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Key, e.Err)
}

// Unwrap 暴露底层原因，便于 errors.Is/As 判定。
func (e *WriteError) Unwrap() error { return e.Err }

// DeleteError 表示 blob 删除失败。淘汰与清理路径会记录并抑制该错误，
// 同时照常移除索引条目，容量账目始终以索引为准。
type DeleteError struct {
	Key CacheKey
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("cache delete %s: %v", e.Key, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// FetchError 表示取回失败（网络错误、超时或非成功状态码），不会留下任何缓存痕迹。
type FetchError struct {
	Identifier string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Identifier, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
