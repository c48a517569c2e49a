package repository

import (
	"context"
	"time"

	"questionnaire_backend/internal/model"

	"gorm.io/gorm"
)

type RespondentRepository struct {
	DB *gorm.DB
}

func NewRespondentRepository(db *gorm.DB) *RespondentRepository {
	return &RespondentRepository{DB: db}
}

// FindByEmailOrExternalID 单次查询匹配任一身份键，多行命中时取最早创建的
func (r *RespondentRepository) FindByEmailOrExternalID(ctx context.Context, email, externalID string) (*model.Respondent, error) {
	query := r.DB.WithContext(ctx).Where("email = ?", email)
	if externalID != "" {
		query = query.Or("external_id = ?", externalID)
	}

	var respondent model.Respondent
	if err := query.Order("id ASC").First(&respondent).Error; err != nil {
		return nil, err
	}
	return &respondent, nil
}

// Create 唯一索引冲突时返回 gorm.ErrDuplicatedKey（需开启 TranslateError）
func (r *RespondentRepository) Create(ctx context.Context, respondent *model.Respondent) error {
	return r.DB.WithContext(ctx).Create(respondent).Error
}

// Touch 更新最近访问时间，姓名非空时一并更新，不修改任何身份键
func (r *RespondentRepository) Touch(ctx context.Context, id uint, firstName, lastName string, seenAt time.Time) error {
	updates := map[string]interface{}{"last_seen_at": seenAt}
	if firstName != "" {
		updates["first_name"] = firstName
	}
	if lastName != "" {
		updates["last_name"] = lastName
	}
	return r.DB.WithContext(ctx).
		Model(&model.Respondent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *RespondentRepository) FindByID(ctx context.Context, id uint) (*model.Respondent, error) {
	var respondent model.Respondent
	if err := r.DB.WithContext(ctx).First(&respondent, id).Error; err != nil {
		return nil, err
	}
	return &respondent, nil
}
