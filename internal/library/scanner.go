package library

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
)

var manifestPattern = regexp.MustCompile(`^appmanifest_(\d+)\.acf$`)

// Scanner 列出库目录中已安装应用的 appid。
type Scanner interface {
	List(root Root) ([]int, error)
}

// ManifestScanner 通过 appmanifest_<appid>.acf 文件名识别 appid。
type ManifestScanner struct{}

// List 返回排序后的 appid；目录中其他文件被忽略。
func (ManifestScanner) List(root Root) ([]int, error) {
	entries, err := os.ReadDir(root.Apps)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root.Apps, err)
	}

	var ids []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := manifestPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// ManifestName 返回 appid 对应的清单文件名。
func ManifestName(appID int) string {
	return "appmanifest_" + strconv.Itoa(appID) + ".acf"
}
