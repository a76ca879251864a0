package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/kekemui/steam-linker/internal/apptype"
)

const (
	appDirName = "steam-linker"
	envPrefix  = "STEAM_LINKER"

	defaultCacheTTL       = 14 * 24 * time.Hour
	defaultCacheTTLJitter = 24 * time.Hour
)

// DefaultPath 返回 $XDG_CONFIG_HOME/steam-linker/config.toml，无法解析时退回当前目录。
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, appDirName, "config.toml")
}

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。文件必须存在。
func Load(path string) (*Config, error) {
	return load(path, false)
}

// LoadDefault 读取默认位置的配置；文件不存在时仅使用默认值与环境变量。
func LoadDefault() (*Config, error) {
	return load(DefaultPath(), true)
}

func load(path string, allowMissing bool) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !allowMissing || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global, v.IsSet("CacheTTLJitter"))
	applyLookupDefaults(&cfg.Lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 10)
	v.SetDefault("LogMaxBackups", 3)
	v.SetDefault("LogCompress", true)
	v.SetDefault("CacheDir", defaultCacheDir())
	v.SetDefault("OutputRoot", filepath.Join("~", "Games", "virtual-steam-library"))
	v.SetDefault("LibraryFolders", filepath.Join("~", ".steam", "steam", "config", "libraryfolders.vdf"))
	v.SetDefault("ExtraRoots", []string{})
	v.SetDefault("CacheTTL", defaultCacheTTL.String())
	// CacheTTLJitter 没有固定默认值，未设置时按 CacheTTL 推算。
	_ = v.BindEnv("CacheTTLJitter")
	v.SetDefault("Kinds", []string{apptype.DefaultKindKey()})
	v.SetDefault("VerifyLinks", false)
	v.SetDefault("ParallelRoots", false)
	v.SetDefault("MaxParallelRoots", 4)
	v.SetDefault("Lookup.Upstream", "")
	v.SetDefault("Lookup.Timeout", "30s")
	v.SetDefault("Lookup.MaxRetries", 2)
	v.SetDefault("Lookup.InitialBackoff", "1s")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join("~", ".cache", appDirName)
	}
	return filepath.Join(dir, appDirName)
}

func applyGlobalDefaults(g *GlobalConfig, jitterSet bool) {
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.CacheTTL.DurationValue() == 0 {
		g.CacheTTL = Duration(defaultCacheTTL)
	}
	if !jitterSet {
		g.CacheTTLJitter = Duration(defaultJitterFor(g.CacheTTL.DurationValue()))
	}
	if g.MaxParallelRoots == 0 {
		g.MaxParallelRoots = 4
	}
	if len(g.Kinds) == 0 {
		g.Kinds = []string{apptype.DefaultKindKey()}
	}
	for i := range g.Kinds {
		g.Kinds[i] = apptype.Normalize(g.Kinds[i])
	}
}

// defaultJitterFor 返回未显式配置时的抖动：默认 1 天，且不超过 TTL 的 1/14。
func defaultJitterFor(ttl time.Duration) time.Duration {
	return min(defaultCacheTTLJitter, ttl/14)
}

func applyLookupDefaults(l *LookupConfig) {
	l.Upstream = strings.TrimRight(strings.TrimSpace(l.Upstream), "/")
	if l.Timeout.DurationValue() == 0 {
		l.Timeout = Duration(30 * time.Second)
	}
	if l.InitialBackoff.DurationValue() == 0 {
		l.InitialBackoff = Duration(time.Second)
	}
}

// resolvePaths 展开 ~ 并转换为绝对路径，后续组件只接受绝对路径。
func (c *Config) resolvePaths() error {
	g := &c.Global
	fields := []struct {
		name  string
		value *string
	}{
		{"Global.CacheDir", &g.CacheDir},
		{"Global.OutputRoot", &g.OutputRoot},
		{"Global.LibraryFolders", &g.LibraryFolders},
		{"Global.LogFilePath", &g.LogFilePath},
	}
	for _, field := range fields {
		if *field.value == "" {
			continue
		}
		resolved, err := absPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = resolved
	}
	for i, root := range g.ExtraRoots {
		resolved, err := absPath(root)
		if err != nil {
			return fmt.Errorf("Global.ExtraRoots[%d]: %w", i, err)
		}
		g.ExtraRoots[i] = resolved
	}
	return nil
}

func absPath(raw string) (string, error) {
	expanded, err := expandHome(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

func expandHome(raw string) (string, error) {
	if raw != "~" && !strings.HasPrefix(raw, "~"+string(filepath.Separator)) {
		return raw, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("无法解析用户目录: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(raw, "~")), nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
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
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
