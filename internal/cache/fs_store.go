package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// NewStore 以 dir 为根目录构建磁盘缓存存储，目录不存在时自动创建。
// 同一目录在整个进程内应复用同一个实例，实例内部保证同键写入互斥。
func NewStore(dir string) (Store, error) {
	if dir == "" {
		return nil, errors.New("storage dir required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("prepare storage dir: %w", err)
	}

	return &diskStore{
		root:  abs,
		locks: make(map[CacheKey]*keyLock),
	}, nil
}

type diskStore struct {
	root string

	mu    sync.Mutex
	locks map[CacheKey]*keyLock
}

// keyLock 按缓存键细分写锁，引用计数归零后从表中移除。
type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (s *diskStore) Exists(key CacheKey) bool {
	blob, err := s.blobPath(key)
	if err != nil {
		return false
	}

	info, err := os.Stat(blob)
	return err == nil && !info.IsDir()
}

func (s *diskStore) Read(key CacheKey) (string, error) {
	blob, err := s.blobPath(key)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(blob)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if info.IsDir() {
		return "", ErrNotFound
	}

	return blob, nil
}

func (s *diskStore) Write(ctx context.Context, key CacheKey, data []byte) (string, error) {
	blob, err := s.blobPath(key)
	if err != nil {
		return "", &WriteError{Key: key, Err: err}
	}

	unlock := s.lockKey(key)
	defer unlock()

	tmp, err := os.CreateTemp(s.root, ".cache-*")
	if err != nil {
		return "", &WriteError{Key: key, Err: err}
	}
	tmpName := tmp.Name()

	_, err = copyWithCancel(ctx, tmp, bytes.NewReader(data))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", &WriteError{Key: key, Err: err}
	}

	if err := os.Rename(tmpName, blob); err != nil {
		os.Remove(tmpName)
		return "", &WriteError{Key: key, Err: err}
	}

	return blob, nil
}

func (s *diskStore) Delete(ctx context.Context, key CacheKey) (bool, error) {
	blob, err := s.blobPath(key)
	if err != nil {
		return false, &DeleteError{Key: key, Err: err}
	}

	unlock := s.lockKey(key)
	defer unlock()

	if err := os.Remove(blob); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &DeleteError{Key: key, Err: err}
	}

	return true, nil
}

func (s *diskStore) Clear(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}

	removed := 0
	var lastErr error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}

		ok, err := s.Delete(ctx, CacheKey(entry.Name()))
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			removed++
		}
	}

	return removed, lastErr
}

// blobPath 校验 key 为裸文件名并拼出绝对路径，拒绝任何携带路径语义的键。
func (s *diskStore) blobPath(key CacheKey) (string, error) {
	name := string(key)
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid cache key: %q", name)
	}
	return filepath.Join(s.root, name), nil
}

// lockKey 锁定指定键，返回解锁函数。
func (s *diskStore) lockKey(key CacheKey) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &keyLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// copyWithCancel 与 io.Copy 等价，但在每轮读写之间响应 ctx 取消。
func copyWithCancel(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				return written, writeErr
			}
			if w != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}
