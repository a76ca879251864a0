package main

import (
	"os"
	"path/filepath"
	"testing"
)

// configFixture 返回 internal/config/testdata 下的配置样例，go test 在包目录内执行。
func configFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("internal", "config", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("配置样例不存在: %v", err)
	}
	return path
}
