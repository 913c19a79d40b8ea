package logging

import "github.com/sirupsen/logrus"

// ActionFields 组装进程入口日志的公共字段。
func ActionFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ImageFields 描述一次图片请求：原始标识、内容寻址键以及是否命中磁盘。
func ImageFields(identifier, cacheKey string, hit bool) logrus.Fields {
	return logrus.Fields{
		"identifier": identifier,
		"cache_key":  cacheKey,
		"cache_hit":  hit,
	}
}
