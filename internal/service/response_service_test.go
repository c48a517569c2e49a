package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
)

func newSubmitFixture(enforceRequired bool) (*ResponseService, *stubQuestionnaireStore, *stubResponseStore, string) {
	qs, token := surveyFixture()
	rs := &stubResponseStore{}
	svc := NewResponseService(NewQuestionnaireGateway(qs, nil, 0), rs, 5*time.Second, enforceRequired)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, qs, rs, token
}

func answer(id uint, raw string) AnswerInput {
	return AnswerInput{QuestionID: id, Value: json.RawMessage(raw)}
}

func TestSubmitSuccess(t *testing.T) {
	svc, _, rs, token := newSubmitFixture(false)

	id, err := svc.Submit(context.Background(), token, SubmitInput{
		RespondentName:  "  Ada Lovelace ",
		RespondentEmail: "Ada@Example.com",
		Answers: []AnswerInput{
			answer(1, `"great course"`),
			answer(2, `["A","B"]`),
			answer(3, `"Yes"`),
			answer(4, `4`),
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != 1 {
		t.Fatalf("response id = %d, want 1", id)
	}
	if rs.calls != 1 {
		t.Fatalf("store calls = %d, want 1", rs.calls)
	}
	if !rs.deadline {
		t.Fatal("transaction context has no deadline")
	}

	resp := rs.responses[0]
	if resp.QuestionnaireID != 10 {
		t.Fatalf("questionnaire id = %d, want 10", resp.QuestionnaireID)
	}
	if resp.RespondentName == nil || *resp.RespondentName != "Ada Lovelace" {
		t.Fatalf("respondent name = %v", resp.RespondentName)
	}
	if resp.RespondentEmail == nil || *resp.RespondentEmail != "ada@example.com" {
		t.Fatalf("respondent email = %v", resp.RespondentEmail)
	}

	want := map[uint]string{1: `"great course"`, 2: `["A","B"]`, 3: `"Yes"`, 4: `4`}
	got := rs.answers[0]
	if len(got) != len(want) {
		t.Fatalf("answers = %d, want %d", len(got), len(want))
	}
	for _, a := range got {
		if want[a.QuestionID] != a.AnswerValue {
			t.Fatalf("question %d encoded = %s, want %s", a.QuestionID, a.AnswerValue, want[a.QuestionID])
		}
	}
}

func TestSubmitAnonymous(t *testing.T) {
	svc, _, rs, token := newSubmitFixture(false)

	if _, err := svc.Submit(context.Background(), token, SubmitInput{
		Answers: []AnswerInput{answer(1, `""`)},
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	resp := rs.responses[0]
	if resp.RespondentName != nil || resp.RespondentEmail != nil {
		t.Fatalf("anonymous response carries identity: %+v", resp)
	}
}

func TestSubmitMalformedTokenTouchesNothing(t *testing.T) {
	svc, qs, rs, _ := newSubmitFixture(false)

	_, err := svc.Submit(context.Background(), "abc", SubmitInput{Answers: []AnswerInput{answer(1, `"x"`)}})
	if !errors.Is(err, util.ErrInvalidShareToken) {
		t.Fatalf("error = %v, want ErrInvalidShareToken", err)
	}
	if qs.calls() != 0 || rs.calls != 0 {
		t.Fatalf("storage touched: questionnaire calls %d, response calls %d", qs.calls(), rs.calls)
	}
}

func TestSubmitRejectsInvalidAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers []AnswerInput
	}{
		{name: "empty list", answers: []AnswerInput{}},
		{name: "nil list", answers: nil},
		{name: "foreign question", answers: []AnswerInput{answer(1, `"ok"`), answer(99, `"x"`)}},
		{name: "duplicate question", answers: []AnswerInput{answer(1, `"a"`), answer(1, `"b"`)}},
		{name: "absent value", answers: []AnswerInput{{QuestionID: 1}}},
		{name: "object value", answers: []AnswerInput{answer(4, `{"v":3}`)}},
		{name: "nested checkbox", answers: []AnswerInput{answer(2, `[["A"]]`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, rs, token := newSubmitFixture(false)

			_, err := svc.Submit(context.Background(), token, SubmitInput{Answers: tt.answers})
			if !errors.Is(err, util.ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
			if rs.calls != 0 {
				t.Fatalf("response store called %d times, want 0", rs.calls)
			}
		})
	}
}

func TestSubmitAcceptsPresentButEmptyValues(t *testing.T) {
	svc, _, rs, token := newSubmitFixture(false)

	_, err := svc.Submit(context.Background(), token, SubmitInput{Answers: []AnswerInput{
		answer(1, `""`),
		answer(2, `[]`),
		answer(3, `false`),
		answer(4, `0`),
	}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(rs.answers[0]) != 4 {
		t.Fatalf("answers = %d, want 4", len(rs.answers[0]))
	}
}

func TestSubmitRequiredQuestions(t *testing.T) {
	// 默认不校验必填题
	svc, _, _, token := newSubmitFixture(false)
	if _, err := svc.Submit(context.Background(), token, SubmitInput{Answers: []AnswerInput{answer(1, `"x"`)}}); err != nil {
		t.Fatalf("permissive Submit: %v", err)
	}

	strict, _, rs, token := newSubmitFixture(true)
	_, err := strict.Submit(context.Background(), token, SubmitInput{Answers: []AnswerInput{answer(1, `"x"`)}})
	if !errors.Is(err, util.ErrInvalidInput) {
		t.Fatalf("missing required error = %v, want ErrInvalidInput", err)
	}
	if rs.calls != 0 {
		t.Fatalf("store called %d times, want 0", rs.calls)
	}

	if _, err := strict.Submit(context.Background(), token, SubmitInput{Answers: []AnswerInput{answer(4, `5`)}}); err != nil {
		t.Fatalf("strict Submit with required answered: %v", err)
	}
}

func TestSubmitNotFound(t *testing.T) {
	svc, qs, rs, token := newSubmitFixture(false)
	qs.questionnaires[token].IsPublic = false

	_, err := svc.Submit(context.Background(), token, SubmitInput{Answers: []AnswerInput{answer(1, `"x"`)}})
	if !errors.Is(err, util.ErrQuestionnaireNotFound) {
		t.Fatalf("error = %v, want ErrQuestionnaireNotFound", err)
	}
	if rs.calls != 0 {
		t.Fatalf("store called %d times, want 0", rs.calls)
	}
}

func TestSubmitPropagatesStoreError(t *testing.T) {
	svc, _, rs, token := newSubmitFixture(false)
	boom := errors.New("deadlock found when trying to get lock")
	rs.err = boom

	id, err := svc.Submit(context.Background(), token, SubmitInput{Answers: []AnswerInput{answer(1, `"x"`)}})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped store error", err)
	}
	if id != 0 {
		t.Fatalf("id = %d, want 0", id)
	}
	if rs.calls != 1 {
		t.Fatalf("store calls = %d, want exactly 1 (no automatic retry)", rs.calls)
	}
}

func TestSubmitScaleNumericString(t *testing.T) {
	svc, _, rs, token := newSubmitFixture(false)

	if _, err := svc.Submit(context.Background(), token, SubmitInput{Answers: []AnswerInput{answer(4, `"3"`)}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	v, ok := model.DecodeAnswerValue(rs.answers[0][0].AnswerValue)
	if !ok || !v.Equal(model.ScaleAnswer(3)) {
		t.Fatalf("decoded = %+v, %v; want scale 3", v, ok)
	}
}
