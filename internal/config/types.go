package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"336h" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述一次运行的全局行为：日志、缓存目录、链接树输出位置与库扫描来源。
type GlobalConfig struct {
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	// CacheDir 存放每个 appid 一份的元数据缓存文件。
	CacheDir string `mapstructure:"CacheDir"`
	// OutputRoot 是链接树的根目录，每个游戏一个子目录。
	OutputRoot string `mapstructure:"OutputRoot"`
	// LibraryFolders 指向 Steam 的 libraryfolders.vdf。
	LibraryFolders string `mapstructure:"LibraryFolders"`
	// ExtraRoots 追加未登记在 libraryfolders.vdf 中的库目录。
	ExtraRoots []string `mapstructure:"ExtraRoots"`

	CacheTTL       Duration `mapstructure:"CacheTTL"`
	CacheTTLJitter Duration `mapstructure:"CacheTTLJitter"`

	Kinds            []string `mapstructure:"Kinds"`
	VerifyLinks      bool     `mapstructure:"VerifyLinks"`
	ParallelRoots    bool     `mapstructure:"ParallelRoots"`
	MaxParallelRoots int      `mapstructure:"MaxParallelRoots"`
}

// LookupConfig 决定如何访问远端元数据服务。
type LookupConfig struct {
	Upstream       string   `mapstructure:"Upstream"`
	Timeout        Duration `mapstructure:"Timeout"`
	MaxRetries     int      `mapstructure:"MaxRetries"`
	InitialBackoff Duration `mapstructure:"InitialBackoff"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Lookup LookupConfig `mapstructure:"Lookup"`
}

// RootSources 汇总库目录来源，供日志字段使用。
func (c *Config) RootSources() []string {
	sources := make([]string, 0, 1+len(c.Global.ExtraRoots))
	if c.Global.LibraryFolders != "" {
		sources = append(sources, c.Global.LibraryFolders)
	}
	return append(sources, c.Global.ExtraRoots...)
}
