// Package pkgmodel turns resolved metadata documents into typed Package
// values for one storage root, keeping only the wanted application kinds.
package pkgmodel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/kekemui/steam-linker/internal/apptype"
	"github.com/kekemui/steam-linker/internal/cache"
	"github.com/kekemui/steam-linker/internal/library"
)

// Package 是一个已安装且需要链接的应用，构造后不可变。
type Package struct {
	ID         int
	Name       string
	InstallDir string
	Root       library.Root
	// RealPath = Root.Installed/InstallDir，不检查是否存在。
	RealPath string
	// AuxPath 仅在构造时 Root.AuxData/<ID> 是目录才会设置。
	AuxPath string
}

// HasAux 表示是否存在辅助数据目录。
func (p Package) HasAux() bool {
	return p.AuxPath != ""
}

func (p Package) String() string {
	return fmt.Sprintf("%d (%s)", p.ID, p.Name)
}

// MalformedError 表示某个元数据文档缺少必填字段，仅影响该应用。
type MalformedError struct {
	AppID  int
	Fields []string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("appid %d: malformed metadata: %v", e.AppID, e.Err)
	}
	return fmt.Sprintf("appid %d: malformed metadata: missing %s", e.AppID, strings.Join(e.Fields, ", "))
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// appInfo 是元数据文档中我们关心的字段视图。
type appInfo struct {
	AppID  *int `mapstructure:"appid"`
	Common struct {
		Name string `mapstructure:"name"`
		Type string `mapstructure:"type"`
	} `mapstructure:"common"`
	Config struct {
		InstallDir string `mapstructure:"installdir"`
	} `mapstructure:"config"`
}

// Build 将 docs 转换为 root 下的 Package 列表，结果按 ID 排序。
// 分类不在 kinds 中的文档被静默丢弃；缺少必填字段的文档以 *MalformedError
// 形式返回，不影响其他文档。
func Build(root library.Root, docs map[int]cache.Document, kinds apptype.Set) ([]Package, []error) {
	keys := make([]int, 0, len(docs))
	for id := range docs {
		keys = append(keys, id)
	}
	sort.Ints(keys)

	var (
		packages []Package
		errs     []error
	)
	for _, key := range keys {
		info, err := decode(docs[key])
		if err != nil {
			errs = append(errs, &MalformedError{AppID: key, Err: err})
			continue
		}
		if info.Common.Type == "" {
			errs = append(errs, &MalformedError{AppID: key, Fields: []string{"common.type"}})
			continue
		}
		if !kinds.Contains(info.Common.Type) {
			continue
		}

		pkg, err := newPackage(root, key, info)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		packages = append(packages, pkg)
	}
	return packages, errs
}

func newPackage(root library.Root, key int, info appInfo) (Package, error) {
	var missing []string
	if info.AppID == nil {
		missing = append(missing, "appid")
	}
	if strings.TrimSpace(info.Common.Name) == "" {
		missing = append(missing, "common.name")
	}
	if strings.TrimSpace(info.Config.InstallDir) == "" {
		missing = append(missing, "config.installdir")
	}
	if len(missing) > 0 {
		return Package{}, &MalformedError{AppID: key, Fields: missing}
	}

	id := *info.AppID
	pkg := Package{
		ID:         id,
		Name:       info.Common.Name,
		InstallDir: info.Config.InstallDir,
		Root:       root,
		RealPath:   filepath.Join(root.Installed, info.Config.InstallDir),
	}

	aux := filepath.Join(root.AuxData, strconv.Itoa(id))
	if stat, err := os.Stat(aux); err == nil && stat.IsDir() {
		pkg.AuxPath = aux
	}
	return pkg, nil
}

func decode(doc cache.Document) (appInfo, error) {
	var info appInfo
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &info,
	})
	if err != nil {
		return info, err
	}
	if err := decoder.Decode(map[string]any(doc)); err != nil {
		return info, err
	}
	return info, nil
}
