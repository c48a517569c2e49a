package controller

import (
	"strconv"

	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 输入错误 400，不可见统一 404，其余记录日志后 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case util.IsInputError(err):
		util.BadRequest(ctx, err.Error())
	case util.IsNotFound(err):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
