package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Fetcher 在缓存未命中时负责取回原始字节。实现必须尊重 ctx 的取消与截止时间。
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) ([]byte, error)
}

// FetchFunc 将普通函数适配为 Fetcher。
type FetchFunc func(ctx context.Context, identifier string) ([]byte, error)

// Fetch 使 FetchFunc 满足 Fetcher。
func (f FetchFunc) Fetch(ctx context.Context, identifier string) ([]byte, error) {
	return f(ctx, identifier)
}

// Options 控制 Cache 的构造参数。
type Options struct {
	// Dir 为 blob 目录，不存在时自动创建；Store 非空时忽略。
	Dir string
	// Store 允许注入自定义存储实现，默认基于 Dir 构建磁盘存储。
	Store Store
	// Capacity 为索引可跟踪的最大条目数，必须 >= 0；0 表示禁用索引登记，
	// 此时取回结果照常落盘但不被跟踪、不被淘汰。
	Capacity int
	// DefaultExt 在标识符缺少扩展名时兜底，默认 ".jpg"。
	DefaultExt string
	// FetchTimeout 约束单次取回的最长耗时，0 表示不额外限制。
	FetchTimeout time.Duration
	// Fetcher 在未命中时取回字节，必填。
	Fetcher Fetcher
	// Logger 输出淘汰、读修复与清理过程中的诊断日志，必填。
	Logger *logrus.Logger
}

// Cache 将 Addresser、Store 与 RecencyIndex 编排为带容量上限的取回式缓存。
// 除实际取回与落盘外的全部状态变更都由一把互斥锁串行化；索引条目数是容量
// 账目的唯一依据，任何操作结束后条目数都不超过容量。
type Cache struct {
	addresser Addresser
	store     Store
	fetcher   Fetcher
	logger    *logrus.Logger
	timeout   time.Duration

	mu     sync.Mutex
	index  *RecencyIndex
	hits   uint64
	misses uint64

	flight singleflight.Group
}

// Stats 为只读观测快照。
type Stats struct {
	Entries  int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// FetchOptions 控制单次 Fetch 的行为。
type FetchOptions struct {
	// ForceRefresh 跳过命中判定，强制重新取回并覆盖现有条目。
	ForceRefresh bool
}

// New 构造 Cache。
func New(opts Options) (*Cache, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("invalid capacity: %d", opts.Capacity)
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = NewStore(opts.Dir)
		if err != nil {
			return nil, err
		}
	}

	return &Cache{
		addresser: NewAddresser(opts.DefaultExt),
		store:     store,
		fetcher:   opts.Fetcher,
		logger:    opts.Logger,
		timeout:   opts.FetchTimeout,
		index:     NewRecencyIndex(opts.Capacity),
	}, nil
}

// Get 在条目存在时触达并返回其磁盘路径，否则返回 ErrNotFound。从不触发取回。
func (c *Cache) Get(ctx context.Context, identifier string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(ctx, identifier)
}

// Fetch 返回条目的磁盘路径；未命中（或 ForceRefresh）时通过 Fetcher 取回、
// 落盘并登记索引。同一 identifier 的并发取回合并为一次飞行中的请求，所有
// 等待者共享同一结果。ctx 先于取回完成被取消时返回包装了 ctx 错误的 *FetchError。
func (c *Cache) Fetch(ctx context.Context, identifier string, opts FetchOptions) (string, error) {
	if opts.ForceRefresh {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
	} else {
		c.mu.Lock()
		location, err := c.lookupLocked(ctx, identifier)
		c.mu.Unlock()
		if err == nil {
			return location, nil
		}
	}

	ch := c.flight.DoChan(identifier, func() (interface{}, error) {
		return c.fetchAndStore(ctx, identifier, opts.ForceRefresh)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &FetchError{Identifier: identifier, Err: ctx.Err()}
	}
}

// Key 返回 identifier 对应的缓存键。纯映射，不访问索引或磁盘。
func (c *Cache) Key(identifier string) CacheKey {
	return c.addresser.Key(identifier)
}

// IsCached 报告条目是否同时存在于索引与磁盘。无触达、无计数、无读修复。
func (c *Cache) IsCached(identifier string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.index.Contains(identifier) {
		return false
	}
	return c.store.Exists(c.addresser.Key(identifier))
}

// Clear 删除存储目录下的全部 blob 并清空索引，返回删除的文件数。个别 blob
// 删除失败会被记录并抑制，索引仍然整体清空；幸存的孤儿文件之后可经 Get 的
// 读修复重新纳管。
func (c *Cache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.store.Clear(ctx)
	c.index.Reset()
	if err != nil {
		var deleteErr *DeleteError
		if !errors.As(err, &deleteErr) {
			return removed, err
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"action": "cache_clear",
		}).Warn("cache_clear_delete_failed")
	}

	c.logger.WithFields(logrus.Fields{
		"action":  "cache_clear",
		"removed": removed,
	}).Info("cache_cleared")
	return removed, nil
}

// Stats 返回条目数、容量与累计命中/未命中计数的快照。
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:  c.index.Len(),
		Capacity: c.index.Capacity(),
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

// lookupLocked 执行命中判定与读修复，并维护命中/未命中计数。调用方必须持有 c.mu。
func (c *Cache) lookupLocked(ctx context.Context, identifier string) (string, error) {
	key := c.addresser.Key(identifier)

	if location, ok := c.index.Lookup(identifier); ok {
		if c.store.Exists(key) {
			c.index.Touch(identifier)
			c.hits++
			return location, nil
		}
		// 索引指向的 blob 已从磁盘消失，剔除失效条目后按未命中处理。
		c.index.Remove(identifier)
		c.logger.WithFields(logrus.Fields{
			"action":     "cache_lookup",
			"identifier": identifier,
			"cache_key":  string(key),
		}).Warn("cache_blob_missing")
	} else if location, err := c.store.Read(key); err == nil {
		// 磁盘上存在索引之外的 blob（如重启前的遗留），读修复后按命中处理。
		if c.index.Capacity() > 0 {
			c.index.Insert(identifier, location)
			c.evictOverCapacityLocked(ctx)
		}
		c.hits++
		return location, nil
	}

	c.misses++
	return "", ErrNotFound
}

// presentLocked 报告条目当前是否完整可用（索引与 blob 同时存在），可用时顺带
// 触达。不影响命中/未命中计数。调用方必须持有 c.mu。
func (c *Cache) presentLocked(identifier string) (string, bool) {
	location, ok := c.index.Lookup(identifier)
	if !ok {
		return "", false
	}
	if !c.store.Exists(c.addresser.Key(identifier)) {
		return "", false
	}

	c.index.Touch(identifier)
	return location, true
}

// fetchAndStore 执行一次真实取回。淘汰先于取回，登记前再次腾位，
// 保证任何时刻索引条目数不超过容量。
func (c *Cache) fetchAndStore(ctx context.Context, identifier string, force bool) (string, error) {
	if !force {
		// 排队等待飞行合并期间条目可能已被上一班取回补齐，先复查再出网。
		c.mu.Lock()
		location, ok := c.presentLocked(identifier)
		c.mu.Unlock()
		if ok {
			return location, nil
		}
	}

	c.mu.Lock()
	c.evictForInsertLocked(ctx)
	c.mu.Unlock()

	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := c.fetcher.Fetch(fetchCtx, identifier)
	if err != nil {
		return "", &FetchError{Identifier: identifier, Err: err}
	}

	key := c.addresser.Key(identifier)
	location, err := c.store.Write(ctx, key, data)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.index.Capacity() > 0 {
		if !c.index.Contains(identifier) {
			c.evictForInsertLocked(ctx)
		}
		c.index.Insert(identifier, location)
	}
	c.mu.Unlock()

	return location, nil
}

// evictForInsertLocked 为即将插入的新条目腾位：条目数达到容量时持续摘除
// 最久未使用的条目。调用方必须持有 c.mu。
func (c *Cache) evictForInsertLocked(ctx context.Context) {
	for c.index.Len() > 0 && c.index.Len() >= c.index.Capacity() {
		c.evictOneLocked(ctx)
	}
}

// evictOverCapacityLocked 在读修复等已插入场景下把条目数压回容量以内。
// 调用方必须持有 c.mu。
func (c *Cache) evictOverCapacityLocked(ctx context.Context) {
	for c.index.Len() > c.index.Capacity() {
		c.evictOneLocked(ctx)
	}
}

// evictOneLocked 摘除最久未使用的条目并删除其 blob。删除失败仅记录日志，
// 索引条目照常移除，保证容量账目以索引为准。
func (c *Cache) evictOneLocked(ctx context.Context) {
	identifier, location, ok := c.index.EvictLRU()
	if !ok {
		return
	}

	key := c.addresser.Key(identifier)
	if _, err := c.store.Delete(ctx, key); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"action":     "cache_evict",
			"identifier": identifier,
			"cache_key":  string(key),
		}).Warn("cache_evict_delete_failed")
		return
	}

	c.logger.WithFields(logrus.Fields{
		"action":     "cache_evict",
		"identifier": identifier,
		"location":   location,
	}).Debug("cache_evicted")
}
