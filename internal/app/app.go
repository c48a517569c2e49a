package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/controller"
	"questionnaire_backend/internal/middleware"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/pkg/configwatcher"
	"questionnaire_backend/pkg/database"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"
	"questionnaire_backend/pkg/security"
	"questionnaire_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	questionnaire *repository.QuestionnaireRepository
	response      *repository.ResponseRepository
	respondent    *repository.RespondentRepository
	snapshotCache *repository.SnapshotCache
}

type services struct {
	gateway    *service.QuestionnaireGateway
	response   *service.ResponseService
	respondent *service.RespondentService
	share      *service.ShareService
	reader     *service.ResponseReader
}

type controllers struct {
	public     *controller.PublicQuestionnaireController
	respondent *controller.RespondentController
	share      *controller.ShareController
	response   *controller.ResponseController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	repos := &repositories{
		questionnaire: repository.NewQuestionnaireRepository(db),
		response:      repository.NewResponseRepository(db),
		respondent:    repository.NewRespondentRepository(db),
	}
	if rdb != nil {
		repos.snapshotCache = repository.NewSnapshotCache(rdb)
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	// 未启用 Redis 时传入 nil 接口，避免 typed nil
	var cache service.SnapshotCache
	if repos.snapshotCache != nil {
		cache = repos.snapshotCache
	}

	s := &services{}
	s.gateway = service.NewQuestionnaireGateway(repos.questionnaire, cache, cfg.Cache.SnapshotTTL)
	s.response = service.NewResponseService(s.gateway, repos.response, cfg.Submission.TxTimeout, cfg.Submission.EnforceRequired)
	s.respondent = service.NewRespondentService(repos.respondent)
	s.share = service.NewShareService(repos.questionnaire, s.gateway, cfg.Server.PublicBaseURL)
	s.reader = service.NewResponseReader(repos.response)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		public:     controller.NewPublicQuestionnaireController(s.gateway, s.response),
		respondent: controller.NewRespondentController(s.respondent, s.gateway),
		share:      controller.NewShareController(s.share),
		response:   controller.NewResponseController(s.reader),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, rateWindow(cfg)))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func rateWindow(cfg *config.Config) time.Duration {
	if cfg.RateLimit.WindowMinutes <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
}

// newApp 用已建立的连接装配路由，rdb 可以为 nil
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(logger.SetLevel)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if newCfg.RateLimit != cfg.RateLimit || newCfg.Submission != cfg.Submission {
			logger.Log.Warn("Rate limit and submission settings take effect after restart")
		}
	})
	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式默认不自动迁移
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app := newApp(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if a.Config.FilePath != "" {
		go func() {
			err := configwatcher.WatchConfig(watchCtx, a.Config.FilePath, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close 释放数据库、Redis 与 tracer
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			logger.Log.Error("Failed to close database", zap.Error(err))
		}
	}
}
