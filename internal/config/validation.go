package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kekemui/steam-linker/internal/apptype"
)

// Validate 针对语义级别做进一步校验，防止非法配置进入运行阶段。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if strings.TrimSpace(g.CacheDir) == "" {
		return newFieldError("Global.CacheDir", "不能为空")
	}
	if strings.TrimSpace(g.OutputRoot) == "" {
		return newFieldError("Global.OutputRoot", "不能为空")
	}
	if g.LibraryFolders == "" && len(g.ExtraRoots) == 0 {
		return newFieldError("Global.LibraryFolders", "与 ExtraRoots 不能同时为空")
	}
	if g.CacheTTL.DurationValue() <= 0 {
		return newFieldError("Global.CacheTTL", "必须大于 0")
	}
	if g.CacheTTLJitter.DurationValue() < 0 {
		return newFieldError("Global.CacheTTLJitter", "不能为负数")
	}
	if g.CacheTTLJitter.DurationValue() >= g.CacheTTL.DurationValue() {
		return newFieldError("Global.CacheTTLJitter", "必须小于 CacheTTL")
	}
	if g.MaxParallelRoots < 1 {
		return newFieldError("Global.MaxParallelRoots", "必须大于 0")
	}
	for _, kind := range g.Kinds {
		if _, ok := apptype.Resolve(kind); !ok {
			return newFieldError("Global.Kinds", fmt.Sprintf("未知分类 %q，仅支持 %s", kind, strings.Join(apptype.Keys(), "|")))
		}
	}

	l := c.Lookup
	if err := validateUpstream(l.Upstream); err != nil {
		return fmt.Errorf("%s: %w", lookupField("Upstream"), err)
	}
	if l.Timeout.DurationValue() <= 0 {
		return newFieldError(lookupField("Timeout"), "必须大于 0")
	}
	if l.MaxRetries < 0 {
		return newFieldError(lookupField("MaxRetries"), "不能为负数")
	}
	if l.InitialBackoff.DurationValue() <= 0 {
		return newFieldError(lookupField("InitialBackoff"), "必须大于 0")
	}

	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("缺少元数据服务地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	return nil
}
