package linker

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/kekemui/steam-linker/internal/apptype"
	"github.com/kekemui/steam-linker/internal/cache"
	"github.com/kekemui/steam-linker/internal/config"
	"github.com/kekemui/steam-linker/internal/library"
	"github.com/kekemui/steam-linker/internal/linktree"
	"github.com/kekemui/steam-linker/internal/lookup"
	"github.com/kekemui/steam-linker/internal/metadata"
)

// Dependencies 允许调用方替换默认的缓存、远端查询与随机源，测试中注入假实现。
type Dependencies struct {
	Store   cache.Store
	Fetcher lookup.Fetcher
	Scanner library.Scanner
	Rand    *rand.Rand
}

// FromConfig 按 “库目录 → 磁盘缓存 → 元数据查询 → 链接树” 的顺序组装 Linker。
func FromConfig(cfg *config.Config, logger *logrus.Logger, runID string, deps Dependencies) (*Linker, error) {
	roots, err := library.LoadRoots(cfg.Global.LibraryFolders, cfg.Global.ExtraRoots, logger)
	if err != nil {
		return nil, fmt.Errorf("加载库目录失败: %w", err)
	}

	store := deps.Store
	if store == nil {
		store, err = cache.NewStore(cfg.Global.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("初始化缓存目录失败: %w", err)
		}
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = lookup.NewHTTPFetcher(cfg, nil, logger)
	}
	scanner := deps.Scanner
	if scanner == nil {
		scanner = library.ManifestScanner{}
	}

	policy := cache.NewFreshnessPolicy(cache.PolicyOptions{
		TTL:    cfg.Global.CacheTTL.DurationValue(),
		Jitter: cfg.Global.CacheTTLJitter.DurationValue(),
		Rand:   deps.Rand,
	})
	resolver := metadata.NewResolver(store, fetcher, policy, logger)

	builder, err := linktree.NewBuilder(linktree.Options{
		OutputRoot:  cfg.Global.OutputRoot,
		VerifyLinks: cfg.Global.VerifyLinks,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return New(Options{
		Roots:       roots,
		Scanner:     scanner,
		Resolver:    resolver,
		Builder:     builder,
		Kinds:       apptype.NewSet(cfg.Global.Kinds...),
		Parallel:    cfg.Global.ParallelRoots,
		MaxParallel: cfg.Global.MaxParallelRoots,
		Logger:      logger,
		RunID:       runID,
	})
}
