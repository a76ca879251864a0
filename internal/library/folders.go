package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ReadFolders 解析 libraryfolders.vdf，返回按序号排列的库路径。
// 同时兼容新格式（"0" { "path" "..." }）与旧格式（"1" "/path"）。
func ReadFolders(vdfPath string) ([]string, error) {
	f, err := os.Open(vdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kv, err := ParseKeyValues(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", vdfPath, err)
	}

	var folders KeyValues
	for key := range kv {
		if strings.EqualFold(key, "libraryfolders") {
			folders, _ = kv.Child(key)
			break
		}
	}
	if folders == nil {
		return nil, fmt.Errorf("parse %s: missing libraryfolders section", vdfPath)
	}

	type entry struct {
		index int
		path  string
	}
	var entries []entry
	for key := range folders {
		index, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if child, ok := folders.Child(key); ok {
			if p, ok := child.String("path"); ok && p != "" {
				entries = append(entries, entry{index, p})
			}
			continue
		}
		if p, ok := folders.String(key); ok && p != "" {
			entries = append(entries, entry{index, p})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}

// LoadRoots 汇总 libraryfolders.vdf 与额外路径，过滤掉磁盘上不存在的目录并去重。
// vdf 缺失且没有额外路径时返回错误。
func LoadRoots(vdfPath string, extra []string, logger *logrus.Logger) ([]Root, error) {
	var candidates []string
	if vdfPath != "" {
		folders, err := ReadFolders(vdfPath)
		switch {
		case err == nil:
			candidates = append(candidates, folders...)
		case errors.Is(err, fs.ErrNotExist) && len(extra) > 0:
			logger.WithFields(logrus.Fields{"action": "load_roots", "path": vdfPath}).
				Warn("libraryfolders.vdf not found, using ExtraRoots only")
		default:
			return nil, err
		}
	}
	candidates = append(candidates, extra...)

	seen := make(map[string]struct{}, len(candidates))
	var roots []Root
	for _, candidate := range candidates {
		clean := filepath.Clean(candidate)
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}

		info, err := os.Stat(clean)
		if err != nil || !info.IsDir() {
			logger.WithFields(logrus.Fields{"action": "load_roots", "root": clean}).
				Debug("library folder missing, skipped")
			continue
		}
		roots = append(roots, NewRoot(clean))
	}
	return roots, nil
}
