package repository

import (
	"context"

	"questionnaire_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionnaireRepository struct {
	DB *gorm.DB
}

func NewQuestionnaireRepository(db *gorm.DB) *QuestionnaireRepository {
	return &QuestionnaireRepository{DB: db}
}

// FindSharedByToken 仅返回已公开且启用的问卷，不可见时返回 gorm.ErrRecordNotFound
func (r *QuestionnaireRepository) FindSharedByToken(ctx context.Context, token string) (*model.Questionnaire, error) {
	var q model.Questionnaire
	err := r.DB.WithContext(ctx).
		Where("share_token = ? AND is_public = ? AND is_active = ?", token, true, true).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionnaireRepository) FindByID(ctx context.Context, id uint) (*model.Questionnaire, error) {
	var q model.Questionnaire
	if err := r.DB.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions 按 order_index 升序，相同时按 id
func (r *QuestionnaireRepository) ListQuestions(ctx context.Context, questionnaireID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Where("questionnaire_id = ?", questionnaireID).
		Order("order_index ASC").
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

// UpdateShare 更新分享状态，token 为 nil 时保留原令牌
func (r *QuestionnaireRepository) UpdateShare(ctx context.Context, id uint, isPublic bool, token *string) error {
	updates := map[string]interface{}{"is_public": isPublic}
	if token != nil {
		updates["share_token"] = *token
	}
	result := r.DB.WithContext(ctx).
		Model(&model.Questionnaire{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
