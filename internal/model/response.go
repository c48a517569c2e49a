package model

import "time"

// Response 一次公开提交，创建后不再修改
// swagger:model Response
type Response struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionnaireID uint           `gorm:"index;not null" json:"questionnaire_id"`
	Questionnaire   *Questionnaire `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RespondentName  *string        `gorm:"size:255" json:"respondent_name"`
	RespondentEmail *string        `gorm:"size:255;index" json:"respondent_email"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (Response) TableName() string {
	return "responses"
}

// Answer 每道已作答题目一行，AnswerValue 为编码后的文本
// swagger:model Answer
type Answer struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ResponseID  uint      `gorm:"index;not null" json:"response_id"`
	Response    *Response `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	QuestionID  uint      `gorm:"index;not null" json:"question_id"`
	Question    *Question `json:"-"`
	AnswerValue string    `gorm:"type:text;not null" json:"answer_value"`
}

func (Answer) TableName() string {
	return "answers"
}
