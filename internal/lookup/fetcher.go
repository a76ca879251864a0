package lookup

import (
	"context"
	"errors"

	"github.com/kekemui/steam-linker/internal/cache"
)

// ErrUnavailable 表示整批查询失败（网络、超时、服务端错误等），调用方应中止本轮解析。
var ErrUnavailable = errors.New("metadata lookup unavailable")

// Fetcher 按 appid 批量查询元数据。返回结果可以只包含部分 appid；
// 缺失的 appid 不视为错误。
type Fetcher interface {
	Fetch(ctx context.Context, appIDs []int) (map[int]cache.Document, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, appIDs []int) (map[int]cache.Document, error)

// Fetch makes FetcherFunc satisfy Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, appIDs []int) (map[int]cache.Document, error) {
	return f(ctx, appIDs)
}
