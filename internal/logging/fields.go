package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RootFields 提供库目录相关字段，供扫描/解析阶段日志复用。
func RootFields(action, root string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"root":   root,
	}
}

// PackageFields 提供单个应用的日志字段。
func PackageFields(action string, appID int, name, installDir string) logrus.Fields {
	return logrus.Fields{
		"action":      action,
		"appid":       appID,
		"name":        name,
		"install_dir": installDir,
	}
}
