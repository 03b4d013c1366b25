package service

// 快取层键名约定，与历史数据保持一致，不要随意改动
const (
	urlKeyPrefix     = "url:"    // 短码 -> 目标地址
	pendingKeyPrefix = "clicks:" // 短码 -> 待回写的点击增量
	dirtySetKey      = "clicks:dirty"
)

func urlKey(code string) string {
	return urlKeyPrefix + code
}

func pendingKey(code string) string {
	return pendingKeyPrefix + code
}
