package model

// QuestionType 题目类型
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionScale          QuestionType = "scale"
	QuestionDropdown       QuestionType = "dropdown"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionMultipleChoice, QuestionCheckbox, QuestionScale, QuestionDropdown:
		return true
	}
	return false
}

// Questionnaire 由问卷编辑端维护，公开链路只读
// swagger:model Questionnaire
type Questionnaire struct {
	BaseModel
	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	IsActive    bool    `gorm:"default:true" json:"is_active"`
	IsPublic    bool    `gorm:"default:false" json:"is_public"`
	ShareToken  *string `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedBy   uint    `gorm:"index" json:"created_by"`

	Questions []Question `gorm:"foreignKey:QuestionnaireID" json:"questions,omitempty"`
}

func (Questionnaire) TableName() string {
	return "questionnaires"
}

// Shared 公开可访问：已公开、已启用且有分享令牌
func (q *Questionnaire) Shared() bool {
	return q.IsPublic && q.IsActive && q.ShareToken != nil
}

// swagger:model Question
type Question struct {
	BaseModel
	QuestionnaireID uint           `gorm:"index;not null" json:"questionnaire_id"`
	Questionnaire   *Questionnaire `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	QuestionText    string         `gorm:"type:text;not null" json:"question_text"`
	QuestionType    QuestionType   `gorm:"size:32;not null" json:"question_type"`
	QuestionOptions string         `gorm:"type:text" json:"-"` // JSON: []string | {min,max}
	IsRequired      bool           `gorm:"default:false" json:"is_required"`
	OrderIndex      int            `gorm:"default:0" json:"order_index"`
}

func (Question) TableName() string {
	return "questions"
}
