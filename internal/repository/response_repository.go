package repository

import (
	"context"

	"questionnaire_backend/internal/model"

	"gorm.io/gorm"
)

type ResponseRepository struct {
	DB *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{DB: db}
}

// CreateWithAnswers 在一个事务内写入答卷及其全部答案，任一步失败整体回滚。
// 答案逐行插入，resp.ID 与每个 answers[i].ID 在提交后可用。
func (r *ResponseRepository) CreateWithAnswers(ctx context.Context, resp *model.Response, answers []model.Answer) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(resp).Error; err != nil {
			return err
		}

		for i := range answers {
			answers[i].ResponseID = resp.ID
			if err := tx.Create(&answers[i]).Error; err != nil {
				return err
			}
		}

		if resp.RespondentEmail != nil && *resp.RespondentEmail != "" {
			err := tx.Model(&model.Respondent{}).
				Where("email = ?", *resp.RespondentEmail).
				Update("response_count", gorm.Expr("response_count + ?", 1)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByQuestionnaire 按问卷限定查找答卷，避免跨问卷读取
func (r *ResponseRepository) FindByQuestionnaire(ctx context.Context, questionnaireID, responseID uint) (*model.Response, error) {
	var resp model.Response
	err := r.DB.WithContext(ctx).
		Where("id = ? AND questionnaire_id = ?", responseID, questionnaireID).
		First(&resp).Error
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAnswers 连同题目一起加载，题目被删除时 Question 为 nil
func (r *ResponseRepository) ListAnswers(ctx context.Context, responseID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).
		Preload("Question").
		Where("response_id = ?", responseID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}
