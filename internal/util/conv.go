package util

import (
	"strconv"
)

// ParseID 把路径参数解析为正整数 ID
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, InvalidInput("invalid id %q", s)
	}
	return uint(id), nil
}

// QueryInt 解析查询参数，缺省或非法时返回默认值
func QueryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
