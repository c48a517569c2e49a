package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type AnswerKind uint8

const (
	AnswerText AnswerKind = iota + 1
	AnswerChoice
	AnswerMultiChoice
	AnswerScale
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerText:
		return "text"
	case AnswerChoice:
		return "choice"
	case AnswerMultiChoice:
		return "multi_choice"
	case AnswerScale:
		return "scale"
	}
	return "unknown"
}

// AnswerValue 单题答案。Kind 决定哪个字段有效：
// Text/Choice 用 Text，MultiChoice 用 Choices，Scale 用 Number
type AnswerValue struct {
	Kind    AnswerKind
	Text    string
	Choices []string
	Number  float64
}

var ErrMalformedAnswer = errors.New("malformed answer value")

func TextAnswer(s string) AnswerValue   { return AnswerValue{Kind: AnswerText, Text: s} }
func ChoiceAnswer(s string) AnswerValue { return AnswerValue{Kind: AnswerChoice, Text: s} }
func ScaleAnswer(n float64) AnswerValue { return AnswerValue{Kind: AnswerScale, Number: n} }

func MultiChoiceAnswer(items ...string) AnswerValue {
	choices := make([]string, len(items))
	copy(choices, items)
	return AnswerValue{Kind: AnswerMultiChoice, Choices: choices}
}

// Interface 返回可直接 JSON 输出的值：string / []string / float64
func (v AnswerValue) Interface() any {
	switch v.Kind {
	case AnswerText, AnswerChoice:
		return v.Text
	case AnswerMultiChoice:
		if v.Choices == nil {
			return []string{}
		}
		return v.Choices
	case AnswerScale:
		return v.Number
	}
	return nil
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v AnswerValue) Equal(o AnswerValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case AnswerText, AnswerChoice:
		return v.Text == o.Text
	case AnswerMultiChoice:
		if len(v.Choices) != len(o.Choices) {
			return false
		}
		for i := range v.Choices {
			if v.Choices[i] != o.Choices[i] {
				return false
			}
		}
		return true
	case AnswerScale:
		return v.Number == o.Number
	}
	return true
}

// Blank 空文本、空多选视为未填写，Scale 总是有值
func (v AnswerValue) Blank() bool {
	switch v.Kind {
	case AnswerText, AnswerChoice:
		return strings.TrimSpace(v.Text) == ""
	case AnswerMultiChoice:
		return len(v.Choices) == 0
	case AnswerScale:
		return false
	}
	return true
}

// ParseAnswerValue 按题型把请求中的 answer_value 转成 AnswerValue。
// 空字符串、false、0 都算作已作答；只有缺失字段会被拒绝。
func ParseAnswerValue(t QuestionType, raw json.RawMessage) (AnswerValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return AnswerValue{}, fmt.Errorf("%w: answer_value is required", ErrMalformedAnswer)
	}
	if !t.Valid() {
		return AnswerValue{}, fmt.Errorf("%w: unsupported question type %q", ErrMalformedAnswer, t)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return AnswerValue{}, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}

	switch t {
	case QuestionText:
		s, err := scalarText(decoded)
		if err != nil {
			return AnswerValue{}, err
		}
		return TextAnswer(s), nil

	case QuestionMultipleChoice, QuestionDropdown:
		s, err := scalarText(decoded)
		if err != nil {
			return AnswerValue{}, err
		}
		return ChoiceAnswer(s), nil

	case QuestionCheckbox:
		switch val := decoded.(type) {
		case nil:
			return MultiChoiceAnswer(), nil
		case []any:
			items := make([]string, 0, len(val))
			for _, item := range val {
				if item == nil {
					return AnswerValue{}, fmt.Errorf("%w: checkbox items must be scalars", ErrMalformedAnswer)
				}
				s, err := scalarText(item)
				if err != nil {
					return AnswerValue{}, err
				}
				items = append(items, s)
			}
			return MultiChoiceAnswer(items...), nil
		default:
			s, err := scalarText(val)
			if err != nil {
				return AnswerValue{}, err
			}
			return MultiChoiceAnswer(s), nil
		}

	case QuestionScale:
		switch val := decoded.(type) {
		case float64:
			return ScaleAnswer(val), nil
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
				return ScaleAnswer(n), nil
			}
			return TextAnswer(val), nil
		default:
			s, err := scalarText(val)
			if err != nil {
				return AnswerValue{}, err
			}
			return TextAnswer(s), nil
		}
	}

	return AnswerValue{}, fmt.Errorf("%w: unsupported question type %q", ErrMalformedAnswer, t)
}

// scalarText null 视为空字符串
func scalarText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	}
	return "", fmt.Errorf("%w: expected a scalar, got %T", ErrMalformedAnswer, v)
}

// EncodeAnswerValue 统一编码为 JSON 文本，存储层只需要一个 text 列
func EncodeAnswerValue(v AnswerValue) (string, error) {
	switch v.Kind {
	case AnswerText, AnswerChoice, AnswerMultiChoice:
	case AnswerScale:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return "", fmt.Errorf("%w: scale value is not finite", ErrMalformedAnswer)
		}
	default:
		return "", fmt.Errorf("%w: unknown kind %d", ErrMalformedAnswer, v.Kind)
	}
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeAnswerValue 解析存储的答案。历史数据或损坏数据返回 ok=false，从不报错
func DecodeAnswerValue(encoded string) (AnswerValue, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(strings.TrimSpace(encoded)), &decoded); err != nil {
		return AnswerValue{}, false
	}

	switch val := decoded.(type) {
	case string:
		return TextAnswer(val), true
	case float64:
		return ScaleAnswer(val), true
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return AnswerValue{}, false
			}
			items = append(items, s)
		}
		return MultiChoiceAnswer(items...), true
	}
	return AnswerValue{}, false
}

// DecodeAnswerValueFor 单选/下拉题的字符串答案还原为 Choice
func DecodeAnswerValueFor(t QuestionType, encoded string) (AnswerValue, bool) {
	v, ok := DecodeAnswerValue(encoded)
	if !ok {
		return v, false
	}
	if v.Kind == AnswerText && (t == QuestionMultipleChoice || t == QuestionDropdown) {
		v.Kind = AnswerChoice
	}
	return v, true
}
