package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const recordExt = ".json"

// NewStore 以 basePath 为根目录构建磁盘缓存，一次运行复用一份实例。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("cache dir required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &fileStore{
		basePath: abs,
		locks:    make(map[int]*entryLock),
	}, nil
}

// fileStore 通过 entryLock 避免同一 appid 并发写入，同时复用 basePath。
type fileStore struct {
	basePath string

	mu    sync.Mutex
	locks map[int]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Get(ctx context.Context, appID int) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.entryPath(appID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filePath, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s: empty document", ErrCorrupt, filePath)
	}

	return &Record{
		AppID:    appID,
		Doc:      doc,
		FilePath: filePath,
		ModTime:  info.ModTime(),
	}, nil
}

func (s *fileStore) Put(ctx context.Context, appID int, doc Document, opts PutOptions) (*Record, error) {
	if doc == nil {
		return nil, errors.New("document required")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode appid %d: %w", appID, err)
	}

	unlock, err := s.lockEntry(appID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	filePath, err := s.entryPath(appID)
	if err != nil {
		return nil, err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, bytes.NewReader(payload))
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = time.Now().UTC()
	}
	if err := os.Chtimes(filePath, modTime, modTime); err != nil {
		return nil, err
	}

	return &Record{
		AppID:    appID,
		Doc:      doc,
		FilePath: filePath,
		ModTime:  modTime,
	}, nil
}

func (s *fileStore) lockEntry(appID int) (func(), error) {
	if appID < 0 {
		return nil, fmt.Errorf("invalid appid %d", appID)
	}
	s.mu.Lock()
	lock := s.locks[appID]
	if lock == nil {
		lock = &entryLock{}
		s.locks[appID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, appID)
		}
		s.mu.Unlock()
	}, nil
}

func (s *fileStore) entryPath(appID int) (string, error) {
	if appID < 0 {
		return "", fmt.Errorf("invalid appid %d", appID)
	}
	return filepath.Join(s.basePath, strconv.Itoa(appID)+recordExt), nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
