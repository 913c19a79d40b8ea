package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// 日志目录不可写时进程必须继续运行：输出回退 stdout，-check-config 仍返回 0。
func TestLoggingFallbackKeepsProcessAlive(t *testing.T) {
	base := t.TempDir()
	sealed := filepath.Join(base, "sealed")
	if err := os.Mkdir(sealed, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Chmod(sealed, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(sealed, 0o755) })

	cfg := fmt.Sprintf(
		"LogLevel = %q\nLogFilePath = %q\nStoragePath = %q\nListenPort = 8080\n",
		"info",
		filepath.Join(sealed, "nested", "img-hub.log"),
		filepath.Join(base, "cache-data"),
	)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("写配置: %v", err)
	}

	out, _ := useBufferWriters(t)
	if code := run(cliOptions{configPath: path, checkOnly: true}); code != 0 {
		t.Fatalf("日志回退不应影响退出码，得到 %d", code)
	}
	t.Log(out.String())
}
