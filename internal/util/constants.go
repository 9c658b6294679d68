package util

// 分页相关常量
const (
	DefaultPage = 1
)
