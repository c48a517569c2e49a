package util

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidShareToken 令牌格式错误，在访问存储之前返回
	ErrInvalidShareToken     = errors.New("invalid share token")
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	ErrResponseNotFound      = errors.New("response not found")
	ErrRespondentConflict    = errors.New("respondent could not be resolved after concurrent insert")
)

// IsInputError 客户端输入错误，统一映射为 400
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidShareToken)
}

// IsNotFound 对外不区分令牌不存在、未公开、已停用
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuestionnaireNotFound) || errors.Is(err, ErrResponseNotFound)
}
