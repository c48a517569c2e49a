package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// GenerateShareToken 32 字节随机数的十六进制编码，共 64 个字符。
// 唯一性由数据库唯一索引保证
func GenerateShareToken() (string, error) {
	b := make([]byte, ShareTokenLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidShareToken 只做长度检查，是否可访问由查询决定
func ValidShareToken(candidate string) bool {
	return utf8.RuneCountInString(candidate) == ShareTokenLength
}
