package app

import (
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/middleware"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/pkg/monitoring"
	"questionnaire_backend/pkg/security"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/api/health", c.health.HealthCheck)

	// 1. 公开问卷(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要授权的问卷管理
	staff := router.Group("/api")
	staff.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Teacher))
	{
		a.registerStaffRoutes(staff, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api/public")
	if cfg.RateLimit.PublicMaxRequests > 0 {
		public.Use(security.RateLimiter(cfg.RateLimit.PublicMaxRequests, rateWindow(cfg)))
	}
	{
		public.GET("/questionnaires/:token", c.public.GetQuestionnaire)
		public.POST("/questionnaires/:token/responses", c.public.SubmitResponse)
		public.POST("/respondents", c.respondent.Register)
	}
}

func (a *App) registerStaffRoutes(rg *gin.RouterGroup, c *controllers) {
	// 分享设置
	rg.POST("/questionnaires/:id/share", c.share.Enable)
	rg.DELETE("/questionnaires/:id/share", c.share.Disable)
	rg.POST("/questionnaires/:id/share/rotate", c.share.Rotate)

	// 答卷查看
	rg.GET("/questionnaires/:id/responses/:responseId", c.response.GetResponse)
}
