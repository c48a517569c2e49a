package controller

import (
	"context"
	"strings"

	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RespondentIdentifier interface {
	Identify(ctx context.Context, in service.IdentifyInput) (uint, error)
}

type RespondentController struct {
	registry RespondentIdentifier
	gateway  SnapshotResolver
}

func NewRespondentController(registry RespondentIdentifier, gateway SnapshotResolver) *RespondentController {
	return &RespondentController{registry: registry, gateway: gateway}
}

type RegisterRespondentRequest struct {
	Email              string  `json:"email" binding:"required,email,max=255"`
	ExternalID         string  `json:"external_id" binding:"max=64"`
	FirstName          string  `json:"first_name" binding:"max=100"`
	LastName           string  `json:"last_name" binding:"max=100"`
	QuestionnaireToken *string `json:"questionnaire_token"`
}

// Register 登记或识别受访者
// @Summary 登记受访者
// @Description 按 email 或学号查找，已存在则更新姓名与最近访问时间。可附带分享令牌以返回问卷 ID
// @Tags Public
// @Accept json
// @Produce json
// @Param request body RegisterRespondentRequest true "受访者信息"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/public/respondents [post]
func (c *RespondentController) Register(ctx *gin.Context) {
	var req RegisterRespondentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	// 令牌不可见时不登记受访者
	var questionnaireID *uint
	if req.QuestionnaireToken != nil && strings.TrimSpace(*req.QuestionnaireToken) != "" {
		snapshot, err := c.gateway.Resolve(ctx.Request.Context(), strings.TrimSpace(*req.QuestionnaireToken))
		if err != nil {
			respondError(ctx, err)
			return
		}
		questionnaireID = &snapshot.ID
	}

	id, err := c.registry.Identify(ctx.Request.Context(), service.IdentifyInput{
		Email:      req.Email,
		ExternalID: req.ExternalID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"respondent_id":    id,
		"questionnaire_id": questionnaireID,
	})
}
