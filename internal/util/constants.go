package util

// ShareTokenLength 分享令牌固定长度
const ShareTokenLength = 64

const (
	SnapshotCacheKeyPrefix = "share:snapshot:"
	RequestIDHeader        = "X-Request-ID"
)
