package version

import "fmt"

// 发布构建通过 -ldflags 覆盖这两个值，开发环境保持占位符。
var (
	Version = "0.1.0"
	Commit  = "dev"
)

// Full 拼出 CLI 与启动日志共用的版本串。
func Full() string {
	return fmt.Sprintf("img-hub/%s+%s", Version, Commit)
}
