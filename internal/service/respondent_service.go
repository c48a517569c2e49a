package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxIdentifyAttempts = 3

type RespondentStore interface {
	FindByEmailOrExternalID(ctx context.Context, email, externalID string) (*model.Respondent, error)
	Create(ctx context.Context, respondent *model.Respondent) error
	Touch(ctx context.Context, id uint, firstName, lastName string, seenAt time.Time) error
}

type IdentifyInput struct {
	Email      string
	ExternalID string
	FirstName  string
	LastName   string
}

type RespondentService struct {
	store RespondentStore
	now   func() time.Time
}

func NewRespondentService(store RespondentStore) *RespondentService {
	return &RespondentService{store: store, now: time.Now}
}

// Identify 按 email 或 external_id 查找受访者，存在则原地更新，否则创建。
// 并发首次创建撞上唯一索引时重新查找，不会产生第二行。
func (s *RespondentService) Identify(ctx context.Context, in IdentifyInput) (uint, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" {
		return 0, fmt.Errorf("%w: email is required", util.ErrInvalidInput)
	}

	raced := false
	for attempt := 0; attempt < maxIdentifyAttempts; attempt++ {
		existing, err := s.store.FindByEmailOrExternalID(ctx, in.Email, in.ExternalID)
		switch {
		case err == nil:
			if err := s.store.Touch(ctx, existing.ID, in.FirstName, in.LastName, s.now()); err != nil {
				monitoring.RespondentIdentifyCounter.WithLabelValues("error").Inc()
				return 0, fmt.Errorf("update respondent %d: %w", existing.ID, err)
			}
			if raced {
				monitoring.RespondentIdentifyCounter.WithLabelValues("race_resolved").Inc()
			} else {
				monitoring.RespondentIdentifyCounter.WithLabelValues("updated").Inc()
			}
			return existing.ID, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			monitoring.RespondentIdentifyCounter.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("find respondent: %w", err)
		}

		now := s.now()
		respondent := &model.Respondent{
			Email:       in.Email,
			ExternalID:  util.StringPtr(in.ExternalID),
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			FirstSeenAt: now,
			LastSeenAt:  now,
		}
		err = s.store.Create(ctx, respondent)
		if err == nil {
			monitoring.RespondentIdentifyCounter.WithLabelValues("created").Inc()
			return respondent.ID, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			monitoring.RespondentIdentifyCounter.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("create respondent: %w", err)
		}

		raced = true
		logger.Log.Debug("Respondent insert lost a race, re-resolving",
			zap.String("email", in.Email),
			zap.Int("attempt", attempt+1),
		)
	}

	monitoring.RespondentIdentifyCounter.WithLabelValues("error").Inc()
	return 0, util.ErrRespondentConflict
}
