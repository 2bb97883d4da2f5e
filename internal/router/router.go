package router

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/handler"
	"github.com/noah-isme/sed-diario-api/internal/middleware"
	"github.com/noah-isme/sed-diario-api/internal/service"
	"github.com/noah-isme/sed-diario-api/pkg/config"
	"github.com/noah-isme/sed-diario-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sed-diario-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sed-diario-api/pkg/middleware/requestid"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	User       *handler.UserHandler
	Auth       *handler.AuthHandler
	Class      *handler.ClassHandler
	Attendance *handler.AttendanceHandler
	Lesson     *handler.LessonHandler
	Metrics    *handler.MetricsHandler
}

// Deps carries the middleware collaborators.
type Deps struct {
	Auth        middleware.Authenticator
	RateCounter middleware.RateCounter
	Metrics     *service.MetricsService
	Logger      *zap.Logger
}

// SetupRouter configures the gin engine with every route of the API.
func SetupRouter(cfg *config.Config, deps Deps, handlers *Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", handlers.Metrics.Ready)
	r.GET("/metrics", handlers.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/usuarios", handlers.User.Create)
	api.POST("/token", handlers.Auth.Token)
	// Signed links carry their own authorization.
	api.GET("/exportacoes/:token", handlers.Lesson.Download)

	window := cfg.RateLimit.Window
	if window <= 0 {
		window = time.Minute
	}
	protected := api.Group("")
	protected.Use(
		middleware.JWT(deps.Auth),
		middleware.RateLimit(deps.RateCounter, cfg.RateLimit.Requests, window, deps.Logger),
	)
	{
		protected.POST("/turmas", handlers.Class.Turmas)
		protected.POST("/alunos", handlers.Class.Alunos)
		protected.POST("/frequencia", handlers.Attendance.Frequencia)
		protected.POST("/aulas", handlers.Lesson.Aulas)

		runs := protected.Group("/aulas/execucoes")
		runs.POST("", handlers.Lesson.CreateRun)
		runs.GET("/:id", handlers.Lesson.GetRun)
		runs.DELETE("/:id", handlers.Lesson.CancelRun)
		runs.GET("/:id/exportar", handlers.Lesson.ExportRun)
	}

	return r
}
