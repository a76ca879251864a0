package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kekemui/steam-linker/internal/cache"
	"github.com/kekemui/steam-linker/internal/config"
	"github.com/kekemui/steam-linker/internal/version"
)

const (
	appsPath        = "/v1/apps"
	maxResponseSize = 64 << 20
)

// HTTPFetcher 通过 POST <Upstream>/v1/apps 批量查询元数据，
// 对网络错误、429 与 5xx 按指数退避重试。
type HTTPFetcher struct {
	client         *http.Client
	logger         *logrus.Logger
	endpoint       string
	maxRetries     int
	initialBackoff time.Duration
	sleep          func(context.Context, time.Duration) error
}

type appsRequest struct {
	AppIDs []int `json:"appids"`
}

type appsResponse struct {
	Apps map[string]cache.Document `json:"apps"`
}

// NewHTTPFetcher 根据 Lookup 配置构造 Fetcher，client 为空时使用 NewUpstreamClient。
func NewHTTPFetcher(cfg *config.Config, client *http.Client, logger *logrus.Logger) *HTTPFetcher {
	if client == nil {
		client = NewUpstreamClient(cfg)
	}
	return &HTTPFetcher{
		client:         client,
		logger:         logger,
		endpoint:       cfg.Lookup.Upstream + appsPath,
		maxRetries:     cfg.Lookup.MaxRetries,
		initialBackoff: cfg.Lookup.InitialBackoff.DurationValue(),
		sleep:          sleepContext,
	}
}

// Fetch 实现 Fetcher。appIDs 为空时不发起请求。
func (f *HTTPFetcher) Fetch(ctx context.Context, appIDs []int) (map[int]cache.Document, error) {
	if len(appIDs) == 0 {
		return map[int]cache.Document{}, nil
	}

	ids := append([]int(nil), appIDs...)
	sort.Ints(ids)
	body, err := json.Marshal(appsRequest{AppIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}

	backoff := f.initialBackoff
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			f.logger.WithFields(logrus.Fields{
				"action":  "lookup_retry",
				"attempt": attempt,
				"backoff": backoff.String(),
				"appids":  len(ids),
			}).WithError(lastErr).Warn("metadata lookup retry")
			if err := f.sleep(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			backoff *= 2
		}

		result, retryable, err := f.do(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (f *HTTPFetcher) do(ctx context.Context, body []byte) (map[int]cache.Document, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	fields := logrus.Fields{
		"action":      "lookup",
		"request_id":  requestID,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		f.logger.WithFields(fields).Warn("metadata lookup rejected")
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var decoded appsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("decode lookup response: %w", err)
	}

	result := make(map[int]cache.Document, len(decoded.Apps))
	for key, doc := range decoded.Apps {
		appID, err := strconv.Atoi(key)
		if err != nil || doc == nil {
			f.logger.WithFields(logrus.Fields{"action": "lookup", "key": key}).Warn("skip malformed lookup entry")
			continue
		}
		result[appID] = doc
	}
	fields["returned"] = len(result)
	f.logger.WithFields(fields).Debug("metadata lookup done")
	return result, false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
