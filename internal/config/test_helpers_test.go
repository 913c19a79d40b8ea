package config

import (
	"os"
	"path/filepath"
	"testing"
)

// fixturePath 指向包内 testdata 下的样例配置。
func fixturePath(name string) string {
	return filepath.Join("testdata", name)
}

// writeTempConfig 把给定 TOML 内容落成临时配置文件并返回路径。
func writeTempConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}
