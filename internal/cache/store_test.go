package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}
	return store, dir
}

func TestStoreWriteAndRead(t *testing.T) {
	store, _ := newTestStore(t)

	location, err := store.Write(context.Background(), "abc.jpg", []byte("payload"))
	if err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}

	body, err := os.ReadFile(location)
	if err != nil {
		t.Fatalf("读取落盘文件失败: %v", err)
	}
	if string(body) != "payload" {
		t.Fatalf("正文不一致: %q", body)
	}

	got, err := store.Read("abc.jpg")
	if err != nil {
		t.Fatalf("读取缓存失败: %v", err)
	}
	if got != location {
		t.Fatalf("路径不一致: %s vs %s", got, location)
	}
	if !store.Exists("abc.jpg") {
		t.Fatal("Exists 应返回 true")
	}
}

func TestStoreReadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Read("missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("期望 ErrNotFound, 得到: %v", err)
	}
	if store.Exists("missing.jpg") {
		t.Fatal("Exists 应返回 false")
	}
}

func TestStoreWriteOverwrites(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Write(ctx, "abc.jpg", []byte("old")); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}
	location, err := store.Write(ctx, "abc.jpg", []byte("new"))
	if err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	body, err := os.ReadFile(location)
	if err != nil {
		t.Fatalf("读取落盘文件失败: %v", err)
	}
	if string(body) != "new" {
		t.Fatalf("覆盖后正文不一致: %q", body)
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, ".cache-*"))
	if err != nil {
		t.Fatalf("扫描临时文件失败: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("残留临时文件: %v", leftovers)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Write(ctx, "abc.jpg", []byte("payload")); err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}

	removed, err := store.Delete(ctx, "abc.jpg")
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if !removed {
		t.Fatal("首次删除应返回 true")
	}
	if store.Exists("abc.jpg") {
		t.Fatal("删除后 Exists 应返回 false")
	}

	removed, err = store.Delete(ctx, "abc.jpg")
	if err != nil {
		t.Fatalf("重复删除不应报错: %v", err)
	}
	if removed {
		t.Fatal("重复删除应返回 false")
	}
}

func TestStoreRejectsPathKeys(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, key := range []CacheKey{"", ".", "..", "a/b.jpg", "../escape.jpg"} {
		if _, err := store.Write(ctx, key, []byte("x")); err == nil {
			t.Fatalf("键 %q 的写入应被拒绝", key)
		}
		if store.Exists(key) {
			t.Fatalf("键 %q 不应存在", key)
		}
		if _, err := store.Read(key); err == nil {
			t.Fatalf("键 %q 的读取应被拒绝", key)
		}
	}

	var deleteErr *DeleteError
	if _, err := store.Delete(ctx, ".."); !errors.As(err, &deleteErr) {
		t.Fatalf("期望 DeleteError, 得到: %v", err)
	}
}

func TestStoreReadIgnoresDirectories(t *testing.T) {
	store, dir := newTestStore(t)

	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}

	if _, err := store.Read("sub.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("目录应按不存在处理, 得到: %v", err)
	}
	if store.Exists("sub.jpg") {
		t.Fatal("目录不应被视为缓存条目")
	}
}

func TestStoreClear(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	for _, key := range []CacheKey{"a.jpg", "b.png", "c.gif"} {
		if _, err := store.Write(ctx, key, []byte("payload")); err != nil {
			t.Fatalf("写入 %s 失败: %v", key, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "keep"), 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	if removed != 3 {
		t.Fatalf("期望删除 3 个文件, 实际 %d", removed)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("读取缓存目录失败: %v", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Fatalf("目录应被保留: %v", entries)
	}

	removed, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("重复清空失败: %v", err)
	}
	if removed != 0 {
		t.Fatalf("空目录清空应删除 0 个文件, 实际 %d", removed)
	}
}

func TestStoreWriteCancelledContext(t *testing.T) {
	store, dir := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Write(ctx, "abc.jpg", []byte("payload"))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("期望 WriteError, 得到: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("期望包装 context.Canceled, 得到: %v", err)
	}

	if store.Exists("abc.jpg") {
		t.Fatal("取消后的写入不应留下正式文件")
	}
	leftovers, err := filepath.Glob(filepath.Join(dir, ".cache-*"))
	if err != nil {
		t.Fatalf("扫描临时文件失败: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("残留临时文件: %v", leftovers)
	}
}
