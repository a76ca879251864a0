package cache

import (
	"math/rand/v2"
	"sync"
	"time"
)

// PolicyOptions 描述新鲜度策略的参数。Rand/Now 为空时分别使用时间种子与 time.Now。
type PolicyOptions struct {
	TTL    time.Duration
	Jitter time.Duration
	Rand   *rand.Rand
	Now    func() time.Time
}

// FreshnessPolicy 在基础 TTL 上叠加 [-Jitter, +Jitter] 的均匀抖动，每次判断独立抽样。
type FreshnessPolicy struct {
	ttl    time.Duration
	jitter time.Duration
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFreshnessPolicy 构造策略，负的 Jitter 视为 0。
func NewFreshnessPolicy(opts PolicyOptions) *FreshnessPolicy {
	jitter := opts.Jitter
	if jitter < 0 {
		jitter = 0
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &FreshnessPolicy{
		ttl:    opts.TTL,
		jitter: jitter,
		now:    now,
		rng:    rng,
	}
}

// Now 返回策略使用的时钟，写回缓存时也以此为准。
func (p *FreshnessPolicy) Now() time.Time {
	return p.now()
}

// EffectiveTTL 抽样一次带抖动的 TTL，结果总在 [TTL-Jitter, TTL+Jitter] 内。
func (p *FreshnessPolicy) EffectiveTTL() time.Duration {
	if p.jitter == 0 {
		return p.ttl
	}
	p.mu.Lock()
	offset := p.rng.Int64N(2*int64(p.jitter)+1) - int64(p.jitter)
	p.mu.Unlock()
	return p.ttl + time.Duration(offset)
}

// IsFresh 判断 now < ModTime + EffectiveTTL。
func (p *FreshnessPolicy) IsFresh(record Record) bool {
	return p.now().Before(record.ModTime.Add(p.EffectiveTTL()))
}
