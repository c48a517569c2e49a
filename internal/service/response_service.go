package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"
	"questionnaire_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ResponseStore 原子写入一份答卷及全部答案
type ResponseStore interface {
	CreateWithAnswers(ctx context.Context, resp *model.Response, answers []model.Answer) error
}

// SnapshotResolver 提交前读取最新的可见问卷
type SnapshotResolver interface {
	ResolveFresh(ctx context.Context, token string) (*QuestionnaireSnapshot, error)
}

type AnswerInput struct {
	QuestionID uint
	Value      json.RawMessage
}

type SubmitInput struct {
	RespondentName  string
	RespondentEmail string
	Answers         []AnswerInput
}

type ResponseService struct {
	resolver        SnapshotResolver
	store           ResponseStore
	txTimeout       time.Duration
	enforceRequired bool
	now             func() time.Time
}

func NewResponseService(resolver SnapshotResolver, store ResponseStore, txTimeout time.Duration, enforceRequired bool) *ResponseService {
	return &ResponseService{
		resolver:        resolver,
		store:           store,
		txTimeout:       txTimeout,
		enforceRequired: enforceRequired,
		now:             time.Now,
	}
}

// Submit 校验并持久化一份公开答卷，成功提交后才返回 response id。
// 持久化失败时事务已回滚，不做自动重试。
func (s *ResponseService) Submit(ctx context.Context, token string, in SubmitInput) (uint, error) {
	if !util.ValidShareToken(token) {
		monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
		return 0, util.ErrInvalidShareToken
	}

	ctx, span := tracing.Tracer.Start(ctx, "ResponseService.Submit")
	defer span.End()

	snapshot, err := s.resolver.ResolveFresh(ctx, token)
	if err != nil {
		if errors.Is(err, util.ErrQuestionnaireNotFound) {
			monitoring.SubmissionCounter.WithLabelValues("not_found").Inc()
		} else {
			tracing.RecordError(span, err)
		}
		return 0, err
	}
	span.SetAttributes(attribute.Int64("questionnaire.id", int64(snapshot.ID)))

	answers, err := s.validate(snapshot, in.Answers)
	if err != nil {
		monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
		return 0, err
	}

	resp := &model.Response{
		QuestionnaireID: snapshot.ID,
		RespondentName:  util.StringPtr(strings.TrimSpace(in.RespondentName)),
		RespondentEmail: util.StringPtr(strings.ToLower(strings.TrimSpace(in.RespondentEmail))),
		CreatedAt:       s.now(),
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	start := time.Now()
	err = s.store.CreateWithAnswers(txCtx, resp, answers)
	monitoring.SubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.SubmissionCounter.WithLabelValues("rolled_back").Inc()
		tracing.RecordError(span, err)
		logger.Log.Error("Response transaction rolled back",
			zap.Uint("questionnaire_id", snapshot.ID),
			zap.Int("answers", len(answers)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("persist response: %w", err)
	}

	monitoring.SubmissionCounter.WithLabelValues("committed").Inc()
	logger.Log.Info("Response committed",
		zap.Uint("questionnaire_id", snapshot.ID),
		zap.Uint("response_id", resp.ID),
		zap.Int("answers", len(answers)),
	)
	return resp.ID, nil
}

// validate 只做结构校验并编码，不访问存储
func (s *ResponseService) validate(snapshot *QuestionnaireSnapshot, inputs []AnswerInput) ([]model.Answer, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: answers must not be empty", util.ErrInvalidInput)
	}

	seen := make(map[uint]bool, len(inputs))
	answers := make([]model.Answer, 0, len(inputs))
	for i, in := range inputs {
		question, ok := snapshot.Question(in.QuestionID)
		if !ok {
			return nil, fmt.Errorf("%w: answers[%d]: question %d does not belong to this questionnaire", util.ErrInvalidInput, i, in.QuestionID)
		}
		if seen[in.QuestionID] {
			return nil, fmt.Errorf("%w: answers[%d]: question %d answered more than once", util.ErrInvalidInput, i, in.QuestionID)
		}
		seen[in.QuestionID] = true

		value, err := model.ParseAnswerValue(question.QuestionType, in.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: answers[%d]: %v", util.ErrInvalidInput, i, err)
		}
		if s.enforceRequired && question.IsRequired && value.Blank() {
			return nil, fmt.Errorf("%w: question %d is required", util.ErrInvalidInput, question.ID)
		}

		encoded, err := model.EncodeAnswerValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: answers[%d]: %v", util.ErrInvalidInput, i, err)
		}
		answers = append(answers, model.Answer{
			QuestionID:  question.ID,
			AnswerValue: encoded,
		})
	}

	if s.enforceRequired {
		for _, question := range snapshot.Questions {
			if question.IsRequired && !seen[question.ID] {
				return nil, fmt.Errorf("%w: question %d is required", util.ErrInvalidInput, question.ID)
			}
		}
	}
	return answers, nil
}
