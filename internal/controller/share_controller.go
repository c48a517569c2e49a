package controller

import (
	"context"

	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShareManager interface {
	EnableSharing(ctx context.Context, questionnaireID uint) (*service.ShareInfo, error)
	DisableSharing(ctx context.Context, questionnaireID uint) (*service.ShareInfo, error)
	RotateToken(ctx context.Context, questionnaireID uint) (*service.ShareInfo, error)
}

type ShareController struct {
	shares ShareManager
}

func NewShareController(shares ShareManager) *ShareController {
	return &ShareController{shares: shares}
}

// Enable 开启分享
// @Summary 开启问卷分享
// @Tags Share
// @Produce json
// @Security BearerAuth
// @Param id path int true "问卷ID"
// @Success 200 {object} util.Response
// @Router /api/questionnaires/{id}/share [post]
func (c *ShareController) Enable(ctx *gin.Context) {
	c.handle(ctx, "enable", c.shares.EnableSharing)
}

// Disable 关闭分享，保留令牌
// @Summary 关闭问卷分享
// @Tags Share
// @Produce json
// @Security BearerAuth
// @Param id path int true "问卷ID"
// @Success 200 {object} util.Response
// @Router /api/questionnaires/{id}/share [delete]
func (c *ShareController) Disable(ctx *gin.Context) {
	c.handle(ctx, "disable", c.shares.DisableSharing)
}

// Rotate 更换分享令牌
// @Summary 更换分享令牌
// @Tags Share
// @Produce json
// @Security BearerAuth
// @Param id path int true "问卷ID"
// @Success 200 {object} util.Response
// @Router /api/questionnaires/{id}/share/rotate [post]
func (c *ShareController) Rotate(ctx *gin.Context) {
	c.handle(ctx, "rotate", c.shares.RotateToken)
}

func (c *ShareController) handle(ctx *gin.Context, action string, op func(context.Context, uint) (*service.ShareInfo, error)) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	info, err := op(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if user := util.GetUserFromContext(ctx); user != nil {
		logger.Log.Info("Share settings changed",
			zap.String("action", action),
			zap.Uint("questionnaire_id", id),
			zap.Uint("user_id", user.UserID),
		)
	}
	util.Success(ctx, info)
}
