package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kekemui/steam-linker/internal/cache"
	"github.com/kekemui/steam-linker/internal/library"
	"github.com/kekemui/steam-linker/internal/linker"
	"github.com/kekemui/steam-linker/internal/linktree"
	"github.com/kekemui/steam-linker/internal/lookup"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("STEAM_LINKER_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"-c", "/tmp/short.toml", "--check-config"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/short.toml" || !opts.checkOnly {
		t.Fatalf("短标志解析错误: %+v", opts)
	}
}

func TestParseCLIFlagsDefaultPathIsEmpty(t *testing.T) {
	t.Setenv("STEAM_LINKER_CONFIG", "")
	opts, err := parseCLIFlags(nil)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "" {
		t.Fatalf("未指定时应交给默认位置处理，得到 %s", opts.configPath)
	}
}

func TestParseCLIFlagsRejectsUnknown(t *testing.T) {
	if _, err := parseCLIFlags([]string{"--listen", "80"}); err == nil {
		t.Fatalf("未知标志应报错")
	}
	if _, err := parseCLIFlags([]string{"extra"}); err == nil {
		t.Fatalf("位置参数应报错")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d", code)
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
	if !strings.Contains(stdErrBuffer().String(), "Upstream") {
		t.Fatalf("错误输出应指出缺失字段: %s", stdErrBuffer().String())
	}
}

func TestRunCheckConfigWithDefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STEAM_LINKER_LOOKUP_UPSTREAM", "http://127.0.0.1:8089")
	useBufferWriters(t)
	code := run(cliOptions{checkOnly: true})
	if code != 0 {
		t.Fatalf("默认位置缺失配置文件时应使用默认值，得到 %d: %s", code, stdErrBuffer().String())
	}
}

func TestRunVersionOutput(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(stdOutBuffer().String(), "steam-linker") {
		t.Fatalf("version 输出应包含 steam-linker 标识")
	}
}

func TestRunLinksLibrary(t *testing.T) {
	dir := t.TempDir()
	root := library.NewRoot(filepath.Join(dir, "SteamLibrary"))
	if err := os.MkdirAll(root.Apps, 0o755); err != nil {
		t.Fatalf("创建库目录失败: %v", err)
	}
	for _, id := range []int{440, 570} {
		if err := os.WriteFile(filepath.Join(root.Apps, library.ManifestName(id)), nil, 0o644); err != nil {
			t.Fatalf("写入清单失败: %v", err)
		}
	}
	output := filepath.Join(dir, "out")
	configPath := writeConfigFile(t, fmt.Sprintf(`
LibraryFolders = "%s"
ExtraRoots = ["%s"]
CacheDir = "%s"
OutputRoot = "%s"

[Lookup]
Upstream = "http://127.0.0.1:1"
`, filepath.Join(dir, "absent.vdf"), root.Base, filepath.Join(dir, "cache"), output))

	useLinkerDeps(t, linker.Dependencies{Fetcher: lookup.FetcherFunc(func(_ context.Context, ids []int) (map[int]cache.Document, error) {
		return map[int]cache.Document{
			440: {"appid": "440", "common": map[string]any{"name": "Team Fortress 2", "type": "Game"}, "config": map[string]any{"installdir": "Team Fortress 2"}},
		}, nil
	})})
	useBufferWriters(t)

	code := run(cliOptions{configPath: configPath})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d: %s", code, stdErrBuffer().String())
	}
	if !strings.Contains(stdOutBuffer().String(), "created: 1") {
		t.Fatalf("摘要应包含创建数: %s", stdOutBuffer().String())
	}
	target, err := os.Readlink(filepath.Join(output, "Team Fortress 2", linktree.RealLinkName))
	if err != nil || target != filepath.Join(root.Installed, "Team Fortress 2") {
		t.Fatalf("gamedata 链接错误: %q %v", target, err)
	}
}

func TestRunReportsFailuresWithExitCode(t *testing.T) {
	dir := t.TempDir()
	root := library.NewRoot(filepath.Join(dir, "SteamLibrary"))
	if err := os.MkdirAll(root.Apps, 0o755); err != nil {
		t.Fatalf("创建库目录失败: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root.Apps, library.ManifestName(10)), nil, 0o644); err != nil {
		t.Fatalf("写入清单失败: %v", err)
	}
	configPath := writeConfigFile(t, fmt.Sprintf(`
LibraryFolders = ""
ExtraRoots = ["%s"]
CacheDir = "%s"
OutputRoot = "%s"

[Lookup]
Upstream = "http://127.0.0.1:1"
`, root.Base, filepath.Join(dir, "cache"), filepath.Join(dir, "out")))

	useLinkerDeps(t, linker.Dependencies{Fetcher: lookup.FetcherFunc(func(context.Context, []int) (map[int]cache.Document, error) {
		return nil, errors.New("upstream down")
	})})
	useBufferWriters(t)

	if code := run(cliOptions{configPath: configPath}); code != 1 {
		t.Fatalf("存在失败时应返回 1，得到 %d", code)
	}
	if !strings.Contains(stdOutBuffer().String(), "[resolve]") {
		t.Fatalf("摘要应列出 resolve 失败: %s", stdOutBuffer().String())
	}
}
