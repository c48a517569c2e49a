package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/testutil"
	"questionnaire_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type dbFixture struct {
	db        *gorm.DB
	gateway   *QuestionnaireGateway
	responses *ResponseService
	token     string
	questions []model.Question
}

func newDBFixture(t *testing.T) *dbFixture {
	db := testutil.NewDB(t)
	token := strings.Repeat("f", 64)
	_, questions := testutil.SeedQuestionnaire(t, db, token, true, true,
		testutil.QuestionSeed{Type: model.QuestionText},
		testutil.QuestionSeed{Type: model.QuestionCheckbox, Options: `["A","B","C"]`},
		testutil.QuestionSeed{Type: model.QuestionScale, Options: `{"min":1,"max":5}`},
	)

	gateway := NewQuestionnaireGateway(repository.NewQuestionnaireRepository(db), nil, 0)
	return &dbFixture{
		db:        db,
		gateway:   gateway,
		responses: NewResponseService(gateway, repository.NewResponseRepository(db), 5*time.Second, false),
		token:     token,
		questions: questions,
	}
}

func (f *dbFixture) fullSubmission() SubmitInput {
	return SubmitInput{Answers: []AnswerInput{
		{QuestionID: f.questions[0].ID, Value: json.RawMessage(`"fine"`)},
		{QuestionID: f.questions[1].ID, Value: json.RawMessage(`["A","B"]`)},
		{QuestionID: f.questions[2].ID, Value: json.RawMessage(`5`)},
	}}
}

func TestSubmitPersistsOneResponseWithAllAnswers(t *testing.T) {
	f := newDBFixture(t)

	id, err := f.responses.Submit(context.Background(), f.token, f.fullSubmission())
	require.NoError(t, err)
	require.NotZero(t, id)

	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &model.Response{}))
	var n int64
	require.NoError(t, f.db.Model(&model.Answer{}).Where("response_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 3, n)
}

func TestSubmitCheckboxRoundTrip(t *testing.T) {
	f := newDBFixture(t)
	checkbox := f.questions[1]

	id, err := f.responses.Submit(context.Background(), f.token, SubmitInput{Answers: []AnswerInput{
		{QuestionID: checkbox.ID, Value: json.RawMessage(`["A","B"]`)},
	}})
	require.NoError(t, err)

	var stored []model.Answer
	require.NoError(t, f.db.Where("response_id = ?", id).Find(&stored).Error)
	require.Len(t, stored, 1)

	value, ok := model.DecodeAnswerValueFor(checkbox.QuestionType, stored[0].AnswerValue)
	require.True(t, ok)
	assert.True(t, value.Equal(model.MultiChoiceAnswer("A", "B")), "decoded %+v", value)
}

func TestSubmitWritesNothingOnRejectedInput(t *testing.T) {
	tests := []struct {
		name    string
		answers func(f *dbFixture) []AnswerInput
	}{
		{name: "empty answers", answers: func(*dbFixture) []AnswerInput { return []AnswerInput{} }},
		{name: "foreign question", answers: func(f *dbFixture) []AnswerInput {
			return []AnswerInput{
				{QuestionID: f.questions[0].ID, Value: json.RawMessage(`"ok"`)},
				{QuestionID: f.questions[2].ID + 100, Value: json.RawMessage(`"x"`)},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDBFixture(t)

			_, err := f.responses.Submit(context.Background(), f.token, SubmitInput{Answers: tt.answers(f)})
			require.ErrorIs(t, err, util.ErrInvalidInput)
			assert.EqualValues(t, 0, testutil.CountRows(t, f.db, &model.Response{}))
			assert.EqualValues(t, 0, testutil.CountRows(t, f.db, &model.Answer{}))
		})
	}
}

func TestSubmitQuestionFromAnotherQuestionnaire(t *testing.T) {
	f := newDBFixture(t)
	_, other := testutil.SeedQuestionnaire(t, f.db, strings.Repeat("e", 64), true, true,
		testutil.QuestionSeed{Type: model.QuestionText})

	_, err := f.responses.Submit(context.Background(), f.token, SubmitInput{Answers: []AnswerInput{
		{QuestionID: other[0].ID, Value: json.RawMessage(`"x"`)},
	}})
	require.ErrorIs(t, err, util.ErrInvalidInput)
	assert.EqualValues(t, 0, testutil.CountRows(t, f.db, &model.Response{}))
}

func TestSubmitRollbackThenRetry(t *testing.T) {
	f := newDBFixture(t)

	injected := errors.New("lost connection during answer insert")
	inserts := 0
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_second_answer", func(tx *gorm.DB) {
		if tx.Statement.Table != "answers" {
			return
		}
		inserts++
		if inserts == 2 {
			_ = tx.AddError(injected)
		}
	}))

	_, err := f.responses.Submit(context.Background(), f.token, f.fullSubmission())
	require.ErrorIs(t, err, injected)
	assert.EqualValues(t, 0, testutil.CountRows(t, f.db, &model.Response{}))
	assert.EqualValues(t, 0, testutil.CountRows(t, f.db, &model.Answer{}))

	id, err := f.responses.Submit(context.Background(), f.token, f.fullSubmission())
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &model.Response{}))
	assert.EqualValues(t, 3, testutil.CountRows(t, f.db, &model.Answer{}))

	var n int64
	require.NoError(t, f.db.Model(&model.Answer{}).Where("response_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 3, n)
}

func TestResolveNotPublicIsNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	token := strings.Repeat("T", 64)
	testutil.SeedQuestionnaire(t, db, token, false, true, testutil.QuestionSeed{Type: model.QuestionText})
	gateway := NewQuestionnaireGateway(repository.NewQuestionnaireRepository(db), nil, 0)

	_, err := gateway.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, util.ErrQuestionnaireNotFound)
}

func TestSubmitAfterUnsharingIsNotFound(t *testing.T) {
	f := newDBFixture(t)
	require.NoError(t, f.db.Model(&model.Questionnaire{}).Where("share_token = ?", f.token).Update("is_public", false).Error)

	_, err := f.responses.Submit(context.Background(), f.token, f.fullSubmission())
	require.ErrorIs(t, err, util.ErrQuestionnaireNotFound)
	assert.EqualValues(t, 0, testutil.CountRows(t, f.db, &model.Response{}))
}

// blindFirstFind 第一次查找假装没有命中，迫使插入撞上唯一索引
type blindFirstFind struct {
	*repository.RespondentRepository
	once sync.Once
}

func (b *blindFirstFind) FindByEmailOrExternalID(ctx context.Context, email, externalID string) (*model.Respondent, error) {
	blind := false
	b.once.Do(func() { blind = true })
	if blind {
		return nil, gorm.ErrRecordNotFound
	}
	return b.RespondentRepository.FindByEmailOrExternalID(ctx, email, externalID)
}

func TestIdentifyDuplicateKeyReResolves(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRespondentRepository(db)
	existing := &model.Respondent{Email: "a@x.com", ExternalID: util.StringPtr("S1")}
	require.NoError(t, repo.Create(context.Background(), existing))

	svc := NewRespondentService(&blindFirstFind{RespondentRepository: repo})
	id, err := svc.Identify(context.Background(), IdentifyInput{Email: "a@x.com", ExternalID: "S1", FirstName: "Anna"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, id)
	assert.EqualValues(t, 1, testutil.CountRows(t, db, &model.Respondent{}))

	reloaded, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Anna", reloaded.FirstName)
}

func TestIdentifyConcurrentFirstSightingOneRow(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRespondentService(repository.NewRespondentRepository(db))

	const workers = 2
	ids := make([]uint, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = svc.Identify(context.Background(), IdentifyInput{Email: "a@x.com", ExternalID: "S1"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, ids[0], ids[1])
	assert.EqualValues(t, 1, testutil.CountRows(t, db, &model.Respondent{}))
}

func TestIdentifyWithoutNamesKeepsStoredNames(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRespondentRepository(db)
	svc := NewRespondentService(repo)
	ctx := context.Background()

	id, err := svc.Identify(ctx, IdentifyInput{Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	svc.now = func() time.Time { return later }
	again, err := svc.Identify(ctx, IdentifyInput{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	reloaded, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", reloaded.FirstName)
	assert.Equal(t, "Lovelace", reloaded.LastName)
	assert.WithinDuration(t, later, reloaded.LastSeenAt, time.Second)
}
