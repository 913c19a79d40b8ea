package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.MaxEntries < 0 {
		return newFieldError("Global.MaxEntries", "不能为负数")
	}
	if !strings.HasPrefix(g.DefaultExtension, ".") {
		return newFieldError("Global.DefaultExtension", "必须以 . 开头")
	}
	if g.FetchTimeout.DurationValue() <= 0 {
		return newFieldError("Global.FetchTimeout", "必须大于 0")
	}

	for i, host := range g.AllowedHosts {
		if err := validateHost(host); err != nil {
			return fmt.Errorf("Global.AllowedHosts[%d]: %w", i, err)
		}
	}

	return nil
}

func validateHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return errors.New("不能为空")
	}
	if strings.Contains(host, "://") {
		return errors.New("不应包含协议头")
	}
	if strings.Contains(host, "/") {
		return errors.New("不允许包含路径")
	}
	if strings.Contains(host, " ") {
		return errors.New("不允许包含空格")
	}
	return nil
}
