package controller

import (
	"context"

	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResponseGetter interface {
	GetResponse(ctx context.Context, questionnaireID, responseID uint) (*service.ResponseView, error)
}

type ResponseController struct {
	reader ResponseGetter
}

func NewResponseController(reader ResponseGetter) *ResponseController {
	return &ResponseController{reader: reader}
}

// GetResponse 查看单份答卷，无法解析的答案 value 为 null
// @Summary 查看答卷
// @Tags Responses
// @Produce json
// @Security BearerAuth
// @Param id path int true "问卷ID"
// @Param responseId path int true "答卷ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questionnaires/{id}/responses/{responseId} [get]
func (c *ResponseController) GetResponse(ctx *gin.Context) {
	questionnaireID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	responseID, ok := parseIDParam(ctx, "responseId")
	if !ok {
		return
	}

	view, err := c.reader.GetResponse(ctx.Request.Context(), questionnaireID, responseID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
