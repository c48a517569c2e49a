package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTokenAttempts = 3

type ShareStore interface {
	FindByID(ctx context.Context, id uint) (*model.Questionnaire, error)
	UpdateShare(ctx context.Context, id uint, isPublic bool, token *string) error
}

type SnapshotEvictor interface {
	Evict(ctx context.Context, token string)
}

type ShareInfo struct {
	QuestionnaireID uint   `json:"questionnaire_id"`
	IsPublic        bool   `json:"is_public"`
	IsActive        bool   `json:"is_active"`
	ShareToken      string `json:"share_token,omitempty"`
	ShareURL        string `json:"share_url,omitempty"`
}

type ShareService struct {
	store    ShareStore
	evictor  SnapshotEvictor
	baseURL  string
	generate func() (string, error)
}

func NewShareService(store ShareStore, evictor SnapshotEvictor, publicBaseURL string) *ShareService {
	return &ShareService{
		store:    store,
		evictor:  evictor,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		generate: util.GenerateShareToken,
	}
}

// EnableSharing 公开问卷，已有令牌时沿用
func (s *ShareService) EnableSharing(ctx context.Context, questionnaireID uint) (*ShareInfo, error) {
	q, err := s.find(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}

	if q.ShareToken != nil {
		if err := s.store.UpdateShare(ctx, q.ID, true, nil); err != nil {
			return nil, fmt.Errorf("enable sharing: %w", err)
		}
		return s.info(q, true, *q.ShareToken), nil
	}

	token, err := s.assignToken(ctx, q.ID, true)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Questionnaire shared", zap.Uint("questionnaire_id", q.ID))
	return s.info(q, true, token), nil
}

// DisableSharing 取消公开，保留令牌以便再次开启时链接不变
func (s *ShareService) DisableSharing(ctx context.Context, questionnaireID uint) (*ShareInfo, error) {
	q, err := s.find(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateShare(ctx, q.ID, false, nil); err != nil {
		return nil, fmt.Errorf("disable sharing: %w", err)
	}

	token := ""
	if q.ShareToken != nil {
		token = *q.ShareToken
		s.evictor.Evict(ctx, token)
	}
	logger.Log.Info("Questionnaire unshared", zap.Uint("questionnaire_id", q.ID))
	return s.info(q, false, token), nil
}

// RotateToken 生成新令牌，旧链接立即失效
func (s *ShareService) RotateToken(ctx context.Context, questionnaireID uint) (*ShareInfo, error) {
	q, err := s.find(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}

	token, err := s.assignToken(ctx, q.ID, q.IsPublic)
	if err != nil {
		return nil, err
	}
	if q.ShareToken != nil {
		s.evictor.Evict(ctx, *q.ShareToken)
	}
	logger.Log.Info("Share token rotated", zap.Uint("questionnaire_id", q.ID))
	return s.info(q, q.IsPublic, token), nil
}

func (s *ShareService) find(ctx context.Context, id uint) (*model.Questionnaire, error) {
	q, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionnaireNotFound
		}
		return nil, fmt.Errorf("find questionnaire %d: %w", id, err)
	}
	return q, nil
}

// assignToken 令牌冲突时重新生成
func (s *ShareService) assignToken(ctx context.Context, id uint, isPublic bool) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := s.generate()
		if err != nil {
			return "", fmt.Errorf("generate share token: %w", err)
		}
		err = s.store.UpdateShare(ctx, id, isPublic, &token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("store share token: %w", err)
		}
		logger.Log.Warn("Share token collision, regenerating", zap.Uint("questionnaire_id", id))
	}
	return "", fmt.Errorf("store share token: %d collisions in a row", maxTokenAttempts)
}

func (s *ShareService) info(q *model.Questionnaire, isPublic bool, token string) *ShareInfo {
	info := &ShareInfo{
		QuestionnaireID: q.ID,
		IsPublic:        isPublic,
		IsActive:        q.IsActive,
		ShareToken:      token,
	}
	if token != "" {
		info.ShareURL = s.baseURL + "/s/" + token
	}
	return info
}
