package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kekemui/steam-linker/internal/cache"
	"github.com/kekemui/steam-linker/internal/lookup"
)

// Stats 汇总一次 Resolve 的命中情况，便于日志输出。
type Stats struct {
	Requested     int
	Hits          int
	Misses        int
	Fetched       int
	WriteFailures int
}

// Resolver 负责 “查缓存 → 批量回源 → 写回缓存 → 合并结果” 的流程。
// 多个库目录可以并发调用同一个 Resolver。
type Resolver struct {
	store   cache.Store
	fetcher lookup.Fetcher
	policy  *cache.FreshnessPolicy
	logger  *logrus.Logger

	mu      sync.Mutex
	written map[int]struct{}
}

// NewResolver 组装 Resolver，所有依赖均由调用方注入。
func NewResolver(store cache.Store, fetcher lookup.Fetcher, policy *cache.FreshnessPolicy, logger *logrus.Logger) *Resolver {
	return &Resolver{
		store:   store,
		fetcher: fetcher,
		policy:  policy,
		logger:  logger,
		written: make(map[int]struct{}),
	}
}

// BeginCycle 开始新一轮解析，清空本轮已写入的 appid 集合。
func (r *Resolver) BeginCycle() {
	r.mu.Lock()
	r.written = make(map[int]struct{})
	r.mu.Unlock()
}

// Resolve 返回 appIDs 对应的元数据。新鲜的缓存直接使用，其余 appid 通过一次
// Fetch 批量获取并写回缓存。Fetch 失败时整批返回 lookup.ErrUnavailable；
// 远端未返回的 appid 直接缺席结果，不视为错误。
func (r *Resolver) Resolve(ctx context.Context, appIDs []int) (map[int]cache.Document, Stats, error) {
	ids := uniqueSorted(appIDs)
	stats := Stats{Requested: len(ids)}
	result := make(map[int]cache.Document, len(ids))

	var missing []int
	for _, id := range ids {
		doc, ok := r.cached(ctx, id)
		if ok {
			result[id] = doc
			continue
		}
		missing = append(missing, id)
	}
	stats.Hits = len(result)
	stats.Misses = len(missing)

	if len(missing) == 0 {
		return result, stats, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	fetched, err := r.fetcher.Fetch(ctx, missing)
	if err != nil {
		if !errors.Is(err, lookup.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", lookup.ErrUnavailable, err)
		}
		return nil, stats, err
	}

	now := r.policy.Now()
	for _, id := range missing {
		doc, ok := fetched[id]
		if !ok || doc == nil {
			r.logger.WithFields(logrus.Fields{"action": "resolve", "appid": id}).Debug("appid absent from lookup response")
			continue
		}
		result[id] = doc
		stats.Fetched++
		if !r.claimWrite(id) {
			continue
		}
		if _, err := r.store.Put(ctx, id, doc, cache.PutOptions{ModTime: now}); err != nil {
			stats.WriteFailures++
			r.logger.WithError(err).
				WithFields(logrus.Fields{"action": "cache_write", "appid": id}).
				Warn("cache_write_failed")
		}
	}

	return result, stats, nil
}

// cached 读取并判断缓存记录是否新鲜；读取失败一律按未命中处理。
func (r *Resolver) cached(ctx context.Context, id int) (cache.Document, bool) {
	record, err := r.store.Get(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrNotFound):
		r.logger.WithFields(logrus.Fields{"action": "cache_lookup", "appid": id}).Debug("cache miss")
		return nil, false
	default:
		r.logger.WithError(err).
			WithFields(logrus.Fields{"action": "cache_lookup", "appid": id}).
			Warn("cache_get_failed")
		return nil, false
	}

	if !r.policy.IsFresh(*record) {
		r.logger.WithFields(logrus.Fields{
			"action":   "cache_lookup",
			"appid":    id,
			"mod_time": record.ModTime,
		}).Debug("cache expired")
		return nil, false
	}
	return record.Doc, true
}

// claimWrite 保证同一轮解析中每个 appid 至多写入一次。
func (r *Resolver) claimWrite(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, done := r.written[id]; done {
		return false
	}
	r.written[id] = struct{}{}
	return true
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
