package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/kekemui/steam-linker/internal/config"
	"github.com/kekemui/steam-linker/internal/linker"
	"github.com/kekemui/steam-linker/internal/logging"
	"github.com/kekemui/steam-linker/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr

	// linkerDeps 在测试中替换远端查询实现。
	linkerDeps linker.Dependencies
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行一次链接流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["roots"] = len(cfg.RootSources())
		fields["kinds"] = cfg.Global.Kinds
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	runID := uuid.NewString()
	fields := logging.BaseFields("startup", opts.configPath)
	fields["run_id"] = runID
	fields["output_root"] = cfg.Global.OutputRoot
	fields["cache_dir"] = cfg.Global.CacheDir
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	// 组装顺序：库目录 → 磁盘缓存 → 元数据查询 → 链接树。
	l, err := linker.FromConfig(cfg, logger, runID, linkerDeps)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化失败: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := l.Run(ctx)
	fmt.Fprint(stdOut, summary.Report())
	if err != nil {
		fmt.Fprintf(stdErr, "运行中断: %v\n", err)
		return 1
	}
	if summary.Failed() {
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadDefault()
	}
	return config.Load(path)
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
// 两者都为空时使用 $XDG_CONFIG_HOME/steam-linker/config.toml，且允许该文件不存在。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("steam-linker", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVarP(&configFlag, "config", "c", "", "配置文件路径（可被 STEAM_LINKER_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVarP(&showVer, "version", "v", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("解析参数失败: 不支持的位置参数 %v", fs.Args())
	}

	path := os.Getenv("STEAM_LINKER_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}
