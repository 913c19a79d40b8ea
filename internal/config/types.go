package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
}

// GlobalConfig 描述服务的全局运行时行为。
type GlobalConfig struct {
	ListenPort       int      `mapstructure:"ListenPort"`
	LogLevel         string   `mapstructure:"LogLevel"`
	LogFilePath      string   `mapstructure:"LogFilePath"`
	LogMaxSize       int      `mapstructure:"LogMaxSize"`
	LogMaxBackups    int      `mapstructure:"LogMaxBackups"`
	LogCompress      bool     `mapstructure:"LogCompress"`
	StoragePath      string   `mapstructure:"StoragePath"`
	MaxEntries       int      `mapstructure:"MaxEntries"`
	DefaultExtension string   `mapstructure:"DefaultExtension"`
	FetchTimeout     Duration `mapstructure:"FetchTimeout"`
	AllowedHosts     []string `mapstructure:"AllowedHosts"`
}

// Duration 兼容两种配置写法：Go 时长字符串（"30s"、"5m"）与裸数字秒值。
type Duration time.Duration

// UnmarshalText 处理 TOML 中以字符串形式书写的时长。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = 0
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("无法解析时长 %q", raw)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// DurationValue 返回标准库的 time.Duration。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}
