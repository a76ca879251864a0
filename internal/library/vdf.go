package library

import (
	"fmt"
	"io"

	"github.com/andygrunwald/vdf"
)

// KeyValues 是 Valve KeyValues 文本解析后的节点：值要么是字符串，要么是子节点。
type KeyValues map[string]any

// Child 返回名为 key 的子节点。
func (kv KeyValues) Child(key string) (KeyValues, bool) {
	switch child := kv[key].(type) {
	case KeyValues:
		return child, true
	case map[string]any:
		return KeyValues(child), true
	default:
		return nil, false
	}
}

// String 返回名为 key 的字符串值。
func (kv KeyValues) String(key string) (string, bool) {
	value, ok := kv[key].(string)
	return value, ok
}

// ParseKeyValues 解析 libraryfolders.vdf 一类的文本 KeyValues。
func ParseKeyValues(r io.Reader) (KeyValues, error) {
	parsed, err := vdf.NewParser(r).Parse()
	if err != nil {
		return nil, fmt.Errorf("vdf: %w", err)
	}
	return KeyValues(parsed), nil
}
