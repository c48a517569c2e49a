package service

import (
	"context"
	"sync"
	"time"

	"questionnaire_backend/internal/model"

	"gorm.io/gorm"
)

type stubQuestionnaireStore struct {
	questionnaires map[string]*model.Questionnaire
	questions      map[uint][]model.Question
	err            error

	findCalls int
	listCalls int
}

func (s *stubQuestionnaireStore) FindSharedByToken(_ context.Context, token string) (*model.Questionnaire, error) {
	s.findCalls++
	if s.err != nil {
		return nil, s.err
	}
	q, ok := s.questionnaires[token]
	if !ok || !q.IsPublic || !q.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (s *stubQuestionnaireStore) ListQuestions(_ context.Context, questionnaireID uint) ([]model.Question, error) {
	s.listCalls++
	return s.questions[questionnaireID], nil
}

func (s *stubQuestionnaireStore) calls() int {
	return s.findCalls + s.listCalls
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error

	gets    int
	sets    int
	deletes []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, token string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[token], nil
}

func (c *stubCache) Set(_ context.Context, token string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[token] = data
	return nil
}

func (c *stubCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, token)
	delete(c.entries, token)
	return nil
}

type stubResponseStore struct {
	err       error
	calls     int
	responses []*model.Response
	answers   [][]model.Answer
	deadline  bool
}

func (s *stubResponseStore) CreateWithAnswers(ctx context.Context, resp *model.Response, answers []model.Answer) error {
	s.calls++
	_, s.deadline = ctx.Deadline()
	if s.err != nil {
		return s.err
	}
	resp.ID = uint(len(s.responses) + 1)
	s.responses = append(s.responses, resp)
	s.answers = append(s.answers, answers)
	return nil
}

func tokenOf(c byte) string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

// surveyFixture 一份公开问卷：1 文本、2 多选、3 单选、4 量表(必填)
func surveyFixture() (*stubQuestionnaireStore, string) {
	token := tokenOf('a')
	shareToken := token
	q := &model.Questionnaire{
		Title:      "Course feedback",
		IsActive:   true,
		IsPublic:   true,
		ShareToken: &shareToken,
	}
	q.ID = 10

	question := func(id uint, t model.QuestionType, options string, required bool, order int) model.Question {
		mq := model.Question{
			QuestionnaireID: 10,
			QuestionText:    string(t) + " question",
			QuestionType:    t,
			QuestionOptions: options,
			IsRequired:      required,
			OrderIndex:      order,
		}
		mq.ID = id
		return mq
	}

	store := &stubQuestionnaireStore{
		questionnaires: map[string]*model.Questionnaire{token: q},
		questions: map[uint][]model.Question{
			10: {
				question(1, model.QuestionText, "", false, 0),
				question(2, model.QuestionCheckbox, `["A","B","C"]`, false, 1),
				question(3, model.QuestionMultipleChoice, `"[\"Yes\",\"No\"]"`, false, 2),
				question(4, model.QuestionScale, `{"min":1,"max":5}`, true, 3),
			},
		},
	}
	return store, token
}
