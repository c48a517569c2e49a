package controller

import (
	"context"
	"encoding/json"

	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SnapshotResolver interface {
	Resolve(ctx context.Context, token string) (*service.QuestionnaireSnapshot, error)
}

type ResponseSubmitter interface {
	Submit(ctx context.Context, token string, in service.SubmitInput) (uint, error)
}

type PublicQuestionnaireController struct {
	gateway   SnapshotResolver
	submitter ResponseSubmitter
}

func NewPublicQuestionnaireController(gateway SnapshotResolver, submitter ResponseSubmitter) *PublicQuestionnaireController {
	return &PublicQuestionnaireController{gateway: gateway, submitter: submitter}
}

type SubmitAnswerRequest struct {
	QuestionID  uint            `json:"question_id"`
	AnswerValue json.RawMessage `json:"answer_value" swaggertype:"object"`
}

type SubmitResponseRequest struct {
	RespondentName  string                `json:"respondent_name" binding:"max=255"`
	RespondentEmail string                `json:"respondent_email" binding:"omitempty,email,max=255"`
	Answers         []SubmitAnswerRequest `json:"answers"`
}

// GetQuestionnaire 通过分享令牌获取公开问卷
// @Summary 获取公开问卷
// @Description 令牌必须为 64 个字符；未公开、已停用与不存在统一返回 404
// @Tags Public
// @Produce json
// @Param token path string true "分享令牌"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/public/questionnaires/{token} [get]
func (c *PublicQuestionnaireController) GetQuestionnaire(ctx *gin.Context) {
	snapshot, err := c.gateway.Resolve(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"questionnaire": snapshot})
}

// SubmitResponse 提交公开问卷答卷
// @Summary 提交答卷
// @Description 答卷与全部答案在一个事务中写入
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "分享令牌"
// @Param request body SubmitResponseRequest true "答卷"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/public/questionnaires/{token}/responses [post]
func (c *PublicQuestionnaireController) SubmitResponse(ctx *gin.Context) {
	token := ctx.Param("token")
	if !util.ValidShareToken(token) {
		respondError(ctx, util.ErrInvalidShareToken)
		return
	}

	var req SubmitResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	in := service.SubmitInput{
		RespondentName:  req.RespondentName,
		RespondentEmail: req.RespondentEmail,
		Answers:         make([]service.AnswerInput, len(req.Answers)),
	}
	for i, a := range req.Answers {
		in.Answers[i] = service.AnswerInput{QuestionID: a.QuestionID, Value: a.AnswerValue}
	}

	id, err := c.submitter.Submit(ctx.Request.Context(), token, in)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"response_id": id})
}
