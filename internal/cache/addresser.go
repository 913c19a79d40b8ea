package cache

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// DefaultExtension 在标识符未携带扩展名时兜底使用。
const DefaultExtension = ".jpg"

// Addresser 将任意资源标识符映射为稳定的缓存键。纯函数，不做任何 I/O，
// 相同输入在任何进程、任何时刻都得到相同的键。
type Addresser struct {
	defaultExt string
}

// NewAddresser 构造 Addresser；ext 为空时退回 DefaultExtension，缺少点号时自动补全。
func NewAddresser(ext string) Addresser {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return Addresser{defaultExt: ext}
}

// Key 返回 identifier 的 MD5 十六进制摘要加扩展名。摘要部分定长，
// 与标识符长度无关，因此任意长的 URL 也能映射为合法文件名。
func (a Addresser) Key(identifier string) CacheKey {
	sum := md5.Sum([]byte(identifier))
	return CacheKey(hex.EncodeToString(sum[:]) + a.extensionFor(identifier))
}

// extensionFor 从标识符的路径部分提取扩展名，查询串与片段不参与判定；
// 标识符无法按 URL 解析时按原始字符串处理。
func (a Addresser) extensionFor(identifier string) string {
	target := identifier
	if parsed, err := url.Parse(identifier); err == nil {
		target = parsed.Path
	}
	if ext := path.Ext(target); ext != "" && ext != "." {
		return ext
	}
	return a.defaultExt
}
