package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFailsWithMissingFields(t *testing.T) {
	if _, err := Load(testConfigPath("missing.toml")); err == nil {
		t.Fatalf("缺失 Lookup.Upstream 的配置应返回错误")
	}
}

func TestLoadFailsWhenFileAbsent(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("显式指定的配置文件不存在时应报错")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
CacheTTL = "boom"

[Lookup]
Upstream = "http://127.0.0.1:8089"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadDefaultToleratesMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STEAM_LINKER_LOOKUP_UPSTREAM", "https://meta.example.com")

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("默认配置缺失时应使用默认值: %v", err)
	}
	if cfg.Lookup.Upstream != "https://meta.example.com" {
		t.Fatalf("环境变量应覆盖 Upstream，得到 %q", cfg.Lookup.Upstream)
	}
	if cfg.Global.CacheTTL.DurationValue() != 14*24*time.Hour {
		t.Fatalf("默认 TTL 应为 14 天，得到 %s", cfg.Global.CacheTTL.DurationValue())
	}
	if cfg.Global.CacheTTLJitter.DurationValue() != 24*time.Hour {
		t.Fatalf("默认抖动应为 1 天，得到 %s", cfg.Global.CacheTTLJitter.DurationValue())
	}
	if !filepath.IsAbs(cfg.Global.OutputRoot) || !filepath.IsAbs(cfg.Global.CacheDir) {
		t.Fatalf("路径应被解析为绝对路径: %+v", cfg.Global)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeTempConfig(t, `
[Lookup]
Upstream = "http://127.0.0.1:8089"
`)
	t.Setenv("STEAM_LINKER_VERIFYLINKS", "true")
	t.Setenv("STEAM_LINKER_EXTRAROOTS", "/mnt/a,/mnt/b")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if !cfg.Global.VerifyLinks {
		t.Fatalf("环境变量应开启 VerifyLinks")
	}
	if len(cfg.Global.ExtraRoots) != 2 || cfg.Global.ExtraRoots[1] != "/mnt/b" {
		t.Fatalf("ExtraRoots 应来自环境变量，得到 %v", cfg.Global.ExtraRoots)
	}
}

func TestLoadDerivesJitterFromShortTTL(t *testing.T) {
	path := writeTempConfig(t, `
CacheTTL = "1h"

[Lookup]
Upstream = "http://127.0.0.1:8089"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("仅调小 CacheTTL 不应报错: %v", err)
	}
	if got, want := cfg.Global.CacheTTLJitter.DurationValue(), time.Hour/14; got != want {
		t.Fatalf("未设置抖动时应按 TTL 推算，期望 %s，得到 %s", want, got)
	}
}

func TestLoadKeepsExplicitJitter(t *testing.T) {
	path := writeTempConfig(t, `
CacheTTL = "1h"
CacheTTLJitter = "2h"

[Lookup]
Upstream = "http://127.0.0.1:8089"
`)
	_, err := Load(path)
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "Global.CacheTTLJitter" {
		t.Fatalf("显式设置的抖动不应被改写，期望 CacheTTLJitter 错误，得到 %v", err)
	}
}
