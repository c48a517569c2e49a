package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"
	"questionnaire_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionnaireStore 公开链路需要的只读查询
type QuestionnaireStore interface {
	FindSharedByToken(ctx context.Context, token string) (*model.Questionnaire, error)
	ListQuestions(ctx context.Context, questionnaireID uint) ([]model.Question, error)
}

// SnapshotCache 缓存序列化后的快照，Get 未命中返回 (nil, nil)
type SnapshotCache interface {
	Get(ctx context.Context, token string) ([]byte, error)
	Set(ctx context.Context, token string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type QuestionSnapshot struct {
	ID              uint               `json:"id"`
	QuestionText    string             `json:"question_text"`
	QuestionType    model.QuestionType `json:"question_type"`
	QuestionOptions json.RawMessage    `json:"question_options"`
	IsRequired      bool               `json:"is_required"`
	OrderIndex      int                `json:"order_index"`
}

// QuestionnaireSnapshot 公开可见的问卷及其有序题目
type QuestionnaireSnapshot struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
	Questions   []QuestionSnapshot `json:"questions"`
}

func (s *QuestionnaireSnapshot) Question(id uint) (*QuestionSnapshot, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

type QuestionnaireGateway struct {
	store QuestionnaireStore
	cache SnapshotCache
	ttl   time.Duration
}

// NewQuestionnaireGateway cache 为 nil 时不使用缓存
func NewQuestionnaireGateway(store QuestionnaireStore, cache SnapshotCache, ttl time.Duration) *QuestionnaireGateway {
	return &QuestionnaireGateway{store: store, cache: cache, ttl: ttl}
}

// Resolve 解析分享令牌。可见性每次读库校验，缓存只保存题目列表
func (g *QuestionnaireGateway) Resolve(ctx context.Context, token string) (*QuestionnaireSnapshot, error) {
	if !util.ValidShareToken(token) {
		return nil, util.ErrInvalidShareToken
	}

	ctx, span := tracing.Tracer.Start(ctx, "QuestionnaireGateway.Resolve")
	defer span.End()

	q, err := g.findShared(ctx, token)
	if err != nil {
		if !errors.Is(err, util.ErrQuestionnaireNotFound) {
			tracing.RecordError(span, err)
		}
		return nil, err
	}

	if questions, ok := g.cached(ctx, token, q.ID); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return newSnapshot(q, questions), nil
	}

	questions, err := g.loadQuestions(ctx, q.ID)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	g.remember(ctx, token, q.ID, questions)
	return newSnapshot(q, questions), nil
}

// ResolveFresh 直接读库，提交答卷时使用
func (g *QuestionnaireGateway) ResolveFresh(ctx context.Context, token string) (*QuestionnaireSnapshot, error) {
	if !util.ValidShareToken(token) {
		return nil, util.ErrInvalidShareToken
	}
	return g.load(ctx, token)
}

// Evict 取消分享或更换令牌后清除缓存
func (g *QuestionnaireGateway) Evict(ctx context.Context, token string) {
	if g.cache == nil || token == "" {
		return
	}
	if err := g.cache.Delete(ctx, token); err != nil {
		logger.Log.Warn("Failed to evict questionnaire snapshot", zap.Error(err))
	}
}

func (g *QuestionnaireGateway) load(ctx context.Context, token string) (*QuestionnaireSnapshot, error) {
	q, err := g.findShared(ctx, token)
	if err != nil {
		return nil, err
	}
	questions, err := g.loadQuestions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return newSnapshot(q, questions), nil
}

func (g *QuestionnaireGateway) findShared(ctx context.Context, token string) (*model.Questionnaire, error) {
	q, err := g.store.FindSharedByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionnaireNotFound
		}
		return nil, fmt.Errorf("find shared questionnaire: %w", err)
	}
	return q, nil
}

func (g *QuestionnaireGateway) loadQuestions(ctx context.Context, questionnaireID uint) ([]QuestionSnapshot, error) {
	questions, err := g.store.ListQuestions(ctx, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("list questions of questionnaire %d: %w", questionnaireID, err)
	}

	out := make([]QuestionSnapshot, 0, len(questions))
	for _, question := range questions {
		options, ok := model.DecodeQuestionOptions(question.QuestionOptions)
		if !ok {
			// 单题选项损坏不影响整份问卷
			monitoring.OptionsDecodeFailures.Inc()
			logger.Log.Warn("Malformed question options, serving null",
				zap.Uint("questionnaire_id", questionnaireID),
				zap.Uint("question_id", question.ID),
			)
		}
		out = append(out, QuestionSnapshot{
			ID:              question.ID,
			QuestionText:    question.QuestionText,
			QuestionType:    question.QuestionType,
			QuestionOptions: options,
			IsRequired:      question.IsRequired,
			OrderIndex:      question.OrderIndex,
		})
	}
	return out, nil
}

func newSnapshot(q *model.Questionnaire, questions []QuestionSnapshot) *QuestionnaireSnapshot {
	return &QuestionnaireSnapshot{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		IsActive:    q.IsActive,
		CreatedAt:   q.CreatedAt,
		Questions:   questions,
	}
}

// cachedQuestions 缓存条目，QuestionnaireID 与当前令牌指向的问卷不一致时视为未命中
type cachedQuestions struct {
	QuestionnaireID uint               `json:"questionnaire_id"`
	Questions       []QuestionSnapshot `json:"questions"`
}

func (g *QuestionnaireGateway) cached(ctx context.Context, token string, questionnaireID uint) ([]QuestionSnapshot, bool) {
	if g.cache == nil {
		return nil, false
	}
	data, err := g.cache.Get(ctx, token)
	if err != nil {
		monitoring.SnapshotCacheCounter.WithLabelValues("error").Inc()
		logger.Log.Warn("Snapshot cache read failed", zap.Error(err))
		return nil, false
	}
	if data == nil {
		monitoring.SnapshotCacheCounter.WithLabelValues("miss").Inc()
		return nil, false
	}

	var entry cachedQuestions
	if err := json.Unmarshal(data, &entry); err != nil {
		monitoring.SnapshotCacheCounter.WithLabelValues("error").Inc()
		logger.Log.Warn("Discarding unreadable snapshot cache entry", zap.Error(err))
		return nil, false
	}
	if entry.QuestionnaireID != questionnaireID {
		monitoring.SnapshotCacheCounter.WithLabelValues("miss").Inc()
		return nil, false
	}
	monitoring.SnapshotCacheCounter.WithLabelValues("hit").Inc()
	return entry.Questions, true
}

func (g *QuestionnaireGateway) remember(ctx context.Context, token string, questionnaireID uint, questions []QuestionSnapshot) {
	if g.cache == nil || g.ttl <= 0 {
		return
	}
	data, err := json.Marshal(cachedQuestions{QuestionnaireID: questionnaireID, Questions: questions})
	if err != nil {
		logger.Log.Warn("Failed to encode questionnaire snapshot", zap.Error(err))
		return
	}
	if err := g.cache.Set(ctx, token, data, g.ttl); err != nil {
		logger.Log.Warn("Snapshot cache write failed", zap.Error(err))
	}
}
