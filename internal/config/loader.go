package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取 TOML 配置并依次完成默认值注入、旧键拦截与语义校验。
// StoragePath 在返回前换算为绝对路径，后续组件不再关心进程工作目录。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	seedDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("配置文件读取失败: %w", err)
	}
	if err := rejectRenamedKeys(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("配置内容解析失败: %w", err)
	}
	applyGlobalDefaults(&cfg.Global)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	storage, err := filepath.Abs(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("缓存目录无法展开为绝对路径: %w", err)
	}
	cfg.Global.StoragePath = storage

	return cfg, nil
}

// rejectRenamedKeys 拦截历史版本遗留的配置键，避免旧字段被静默忽略。
func rejectRenamedKeys(v *viper.Viper) error {
	if v.IsSet("MaxSize") {
		return newFieldError("Global.MaxSize", "字段已更名，请使用 MaxEntries")
	}
	return nil
}

func seedDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8080)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("StoragePath", "./cache-data")
	v.SetDefault("MaxEntries", 256)
	v.SetDefault("DefaultExtension", ".jpg")
	v.SetDefault("FetchTimeout", "10s")
	v.SetDefault("AllowedHosts", []string{})
}

// applyGlobalDefaults 只兜底不允许为零值的字段；MaxEntries 不在其列，
// 显式配置为 0 表示禁用索引登记，必须原样保留。
func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8080
	}
	if g.DefaultExtension == "" {
		g.DefaultExtension = ".jpg"
	}
	if g.FetchTimeout.DurationValue() == 0 {
		g.FetchTimeout = Duration(10 * time.Second)
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	durationType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType {
			return data, nil
		}
		d, err := coerceDuration(data)
		return d, err
	}
}

// coerceDuration 与 Duration.UnmarshalText 保持同一套规则：
// 字符串按 Go 时长或数字秒解析，裸数字一律按秒计。
func coerceDuration(data interface{}) (Duration, error) {
	switch v := data.(type) {
	case string:
		if v == "" {
			return 0, nil
		}
		if parsed, err := time.ParseDuration(v); err == nil {
			return Duration(parsed), nil
		}
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return Duration(time.Duration(secs * float64(time.Second))), nil
		}
		return 0, fmt.Errorf("无法解析时长 %q", v)
	case int:
		return Duration(time.Duration(v) * time.Second), nil
	case int64:
		return Duration(time.Duration(v) * time.Second), nil
	case float64:
		return Duration(time.Duration(v * float64(time.Second))), nil
	case time.Duration:
		return Duration(v), nil
	case Duration:
		return v, nil
	default:
		return 0, fmt.Errorf("无法将 %T 转换为时长", v)
	}
}
