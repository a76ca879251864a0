package library

import "path/filepath"

// Root 是单个库目录的布局，构造后只读。
type Root struct {
	// Base 是 libraryfolders.vdf 中登记的路径。
	Base string
	// Apps 是 appmanifest_*.acf 所在的扫描目录。
	Apps string
	// Installed 存放各游戏的安装目录。
	Installed string
	// AuxData 存放每个 appid 的 Proton 前缀等运行态数据。
	AuxData string
	// DerivedCache 是着色器缓存目录，链接树不使用。
	DerivedCache string
}

// NewRoot 根据库路径推导布局。
func NewRoot(base string) Root {
	apps := filepath.Join(base, "steamapps")
	return Root{
		Base:         base,
		Apps:         apps,
		Installed:    filepath.Join(apps, "common"),
		AuxData:      filepath.Join(apps, "compatdata"),
		DerivedCache: filepath.Join(apps, "shadercache"),
	}
}

func (r Root) String() string {
	return r.Base
}
