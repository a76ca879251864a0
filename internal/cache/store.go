package cache

import (
	"context"
	"errors"
	"time"
)

// Document 是远端返回的单个应用元数据，结构对缓存层不透明。
type Document map[string]any

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<CacheDir>/<appid>.json    # JSON 编码的元数据
//
// 文件的 ModTime 即写入时间，由文件系统提供。
type Store interface {
	// Get 返回指定 appid 的缓存记录。若不存在则返回 ErrNotFound，
	// 内容无法解析时返回包装 ErrCorrupt 的错误。
	Get(ctx context.Context, appID int) (*Record, error)

	// Put 无条件覆盖 appid 对应的记录。实现需通过临时文件 + rename
	// 保证写入原子性，并在失败时清理临时文件。可选地根据 opts.ModTime 设置文件时间戳。
	Put(ctx context.Context, appID int, doc Document, opts PutOptions) (*Record, error)
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Record 表示一条缓存记录，包含绝对文件路径及写入时间。
type Record struct {
	AppID    int       `json:"appid"`
	Doc      Document  `json:"doc"`
	FilePath string    `json:"file_path"`
	ModTime  time.Time `json:"mod_time"`
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")
	// ErrCorrupt 表示缓存文件存在但无法解码。
	ErrCorrupt = errors.New("cache entry corrupt")
)
