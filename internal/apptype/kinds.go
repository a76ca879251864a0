package apptype

// Kind 描述一个应用分类的静态信息。
type Kind struct {
	Key         string
	Description string
	// Linkable 表示该分类默认会进入链接树。
	Linkable bool
}

const defaultKindKey = "game"

// DefaultKindKey 返回默认参与链接的分类键。
func DefaultKindKey() string {
	return defaultKindKey
}

func init() {
	MustRegister(Kind{Key: defaultKindKey, Description: "installable game", Linkable: true})
	MustRegister(Kind{Key: "application", Description: "non-game software"})
	MustRegister(Kind{Key: "tool", Description: "runtime or compatibility tool"})
	MustRegister(Kind{Key: "demo", Description: "playable demo"})
	MustRegister(Kind{Key: "dlc", Description: "downloadable content"})
	MustRegister(Kind{Key: "music", Description: "soundtrack"})
	MustRegister(Kind{Key: "video", Description: "video content"})
	MustRegister(Kind{Key: "config", Description: "shared configuration depot"})
	MustRegister(Kind{Key: "beta", Description: "beta branch"})
}
