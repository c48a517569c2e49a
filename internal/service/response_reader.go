package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResponseReadStore interface {
	FindByQuestionnaire(ctx context.Context, questionnaireID, responseID uint) (*model.Response, error)
	ListAnswers(ctx context.Context, responseID uint) ([]model.Answer, error)
}

// AnswerView Parseable 为 false 时 Value 为 null，由前端显示"无法解析"
type AnswerView struct {
	QuestionID   uint               `json:"question_id"`
	QuestionText string             `json:"question_text,omitempty"`
	QuestionType model.QuestionType `json:"question_type,omitempty"`
	Value        *model.AnswerValue `json:"value"`
	Parseable    bool               `json:"parseable"`
}

type ResponseView struct {
	ID              uint         `json:"id"`
	QuestionnaireID uint         `json:"questionnaire_id"`
	RespondentName  *string      `json:"respondent_name"`
	RespondentEmail *string      `json:"respondent_email"`
	CreatedAt       time.Time    `json:"created_at"`
	Answers         []AnswerView `json:"answers"`
}

type ResponseReader struct {
	store ResponseReadStore
}

func NewResponseReader(store ResponseReadStore) *ResponseReader {
	return &ResponseReader{store: store}
}

func (r *ResponseReader) GetResponse(ctx context.Context, questionnaireID, responseID uint) (*ResponseView, error) {
	resp, err := r.store.FindByQuestionnaire(ctx, questionnaireID, responseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResponseNotFound
		}
		return nil, fmt.Errorf("find response %d: %w", responseID, err)
	}

	answers, err := r.store.ListAnswers(ctx, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers of response %d: %w", resp.ID, err)
	}

	view := &ResponseView{
		ID:              resp.ID,
		QuestionnaireID: resp.QuestionnaireID,
		RespondentName:  resp.RespondentName,
		RespondentEmail: resp.RespondentEmail,
		CreatedAt:       resp.CreatedAt,
		Answers:         make([]AnswerView, 0, len(answers)),
	}
	for _, a := range answers {
		av := AnswerView{QuestionID: a.QuestionID}

		var (
			value model.AnswerValue
			ok    bool
		)
		if a.Question != nil {
			av.QuestionText = a.Question.QuestionText
			av.QuestionType = a.Question.QuestionType
			value, ok = model.DecodeAnswerValueFor(a.Question.QuestionType, a.AnswerValue)
		} else {
			value, ok = model.DecodeAnswerValue(a.AnswerValue)
		}

		if ok {
			av.Value = &value
			av.Parseable = true
		} else {
			logger.Log.Warn("Stored answer could not be decoded",
				zap.Uint("response_id", resp.ID),
				zap.Uint("answer_id", a.ID),
			)
		}
		view.Answers = append(view.Answers, av)
	}
	return view, nil
}
