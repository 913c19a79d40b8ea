package cache

import (
	"context"
	"errors"
)

// CacheKey 是由 Addresser 派生出的 blob 文件名，始终为不含路径分隔符的裸文件名。
type CacheKey string

// Store 负责管理磁盘缓存 blob 的读写。磁盘布局遵循：
//
//	<StoragePath>/<md5(identifier)><ext>    # 实际正文
//
// 扁平目录中的每个条目仅由正文文件组成，不保存元数据，也不依赖 mtime 表达新旧。
type Store interface {
	// Exists 报告 key 对应的 blob 是否存在，无任何副作用。
	Exists(key CacheKey) bool

	// Write 将字节原子写入缓存（临时文件 + rename），已存在时覆盖，返回落盘后的
	// 绝对路径。失败时返回 *WriteError 并清理临时文件，不会留下半成品文件。
	Write(ctx context.Context, key CacheKey, data []byte) (string, error)

	// Read 返回 blob 的绝对路径，不把内容加载进内存。不存在时返回 ErrNotFound。
	Read(key CacheKey) (string, error)

	// Delete 删除 blob，返回是否真正发生了删除；blob 不存在不视为错误。
	Delete(ctx context.Context, key CacheKey) (bool, error)

	// Clear 删除目录下的全部文件，返回删除数量。
	Clear(ctx context.Context) (int, error)
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")
