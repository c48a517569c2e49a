package model

import "time"

// Respondent 填写问卷的学生身份，email 与 external_id（学号）各自唯一
// swagger:model Respondent
type Respondent struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email         string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	ExternalID    *string   `gorm:"size:64;uniqueIndex" json:"external_id"`
	FirstName     string    `gorm:"size:100" json:"first_name"`
	LastName      string    `gorm:"size:100" json:"last_name"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	ResponseCount int       `gorm:"not null;default:0" json:"response_count"`
}

func (Respondent) TableName() string {
	return "respondents"
}

func (r *Respondent) DisplayName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}
