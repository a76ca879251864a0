package apptype

// Set 是一次运行中需要保留的分类集合，成员均已标准化。
type Set map[string]struct{}

// NewSet 根据配置中的分类键构建集合，空输入时回退到所有 Linkable 分类。
func NewSet(keys ...string) Set {
	set := make(Set, len(keys))
	for _, key := range keys {
		if normalized := Normalize(key); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	if len(set) == 0 {
		for _, kind := range List() {
			if kind.Linkable {
				set[kind.Key] = struct{}{}
			}
		}
	}
	return set
}

// Contains 判断 raw（通常来自元数据 common.type）是否属于集合，大小写不敏感。
func (s Set) Contains(raw string) bool {
	_, ok := s[Normalize(raw)]
	return ok
}
