package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfigPath(name string) string {
	return filepath.Join("testdata", name)
}

// writeTempConfig 将 TOML 内容写入临时目录并返回路径。
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}
