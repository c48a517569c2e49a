package model

import (
	"bytes"
	"encoding/json"
)

// DecodeQuestionOptions 已是结构化 JSON 时原样返回；旧数据中被二次编码的 JSON 字符串会解开一层。
// 无法解析时 ok=false，调用方应把该题的 options 置为 null 而不是整体失败
func DecodeQuestionOptions(stored string) (json.RawMessage, bool) {
	raw := bytes.TrimSpace([]byte(stored))
	if len(raw) == 0 {
		return nil, true
	}
	if !json.Valid(raw) {
		return nil, false
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		innerRaw := bytes.TrimSpace([]byte(inner))
		if len(innerRaw) > 0 && json.Valid(innerRaw) {
			return json.RawMessage(innerRaw), true
		}
	}

	return json.RawMessage(raw), true
}
