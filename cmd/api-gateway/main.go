package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sed-diario-api/api/swagger"
	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/handler"
	"github.com/noah-isme/sed-diario-api/internal/lessonplan"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	"github.com/noah-isme/sed-diario-api/internal/registration"
	"github.com/noah-isme/sed-diario-api/internal/repository"
	"github.com/noah-isme/sed-diario-api/internal/router"
	"github.com/noah-isme/sed-diario-api/internal/service"
	"github.com/noah-isme/sed-diario-api/pkg/cache"
	"github.com/noah-isme/sed-diario-api/pkg/config"
	"github.com/noah-isme/sed-diario-api/pkg/database"
	"github.com/noah-isme/sed-diario-api/pkg/export"
	"github.com/noah-isme/sed-diario-api/pkg/jobs"
	"github.com/noah-isme/sed-diario-api/pkg/logger"
	"github.com/noah-isme/sed-diario-api/pkg/storage"
)

const shutdownTimeout = 30 * time.Second

// @title SED Diário API
// @version 1.0.0
// @description Automates lesson registration, class rosters and attendance on the SED portal for a chat-bot client.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	} else {
		logr.Warn("redis disabled: account locks are process-local and rate limiting is off")
	}

	validate := dto.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	runRepo := repository.NewRunRepository(db)
	lockRepo := repository.NewAccountLockRepository(redisClient, cfg.Portal.LockTTL)
	rateRepo := repository.NewRateLimitRepository(redisClient)

	var runCache *service.CacheService
	if redisClient != nil {
		runCache = service.NewCacheService(repository.NewCacheRepository(redisClient, "sed:runs"), metrics, time.Hour, logr)
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
		APIKey:     cfg.Auth.APIKey,
	})
	userService := service.NewUserService(userRepo, validate, logr, cfg.Auth.AdminAPIKey)

	bootstrapper := portal.NewBootstrapper(portal.NewRodLauncher(cfg.Portal, logr), portal.BootstrapConfig{
		BaseURL:           cfg.Portal.BaseURL,
		NavigationTimeout: cfg.Portal.NavigationTimeout,
		ElementTimeout:    cfg.Portal.ElementTimeout,
	}, metrics, logr)

	classService := service.NewClassService(bootstrapper, portal.NewRoster(cfg.Portal.ElementTimeout), lockRepo,
		bootstrapper.URL(portal.PathClasses), validate, logr)
	attendanceService := service.NewAttendanceService(bootstrapper, portal.NewAttendance(portal.AttendanceConfig{
		URL:            cfg.Portal.AttendanceURL,
		ElementTimeout: cfg.Portal.ElementTimeout,
		SaveTimeout:    cfg.Portal.SaveTimeout,
	}, logr), lockRepo, cfg.Portal.AttendanceURL, validate, logr)

	workflow, err := buildWorkflow(ctx, cfg, bootstrapper, metrics, logr)
	if err != nil {
		logr.Fatal("failed to build registration workflow", zap.Error(err))
	}

	lessonDeps := service.LessonServiceDeps{
		Runner:    workflow,
		Locks:     lockRepo,
		Recorder:  metrics,
		Validator: validate,
		Logger:    logr,
	}
	var queue *jobs.Queue
	if cfg.Runs.Enabled {
		sealer, err := service.NewCredentialSealer(cfg.Runs.CredentialKey)
		if err != nil {
			logr.Fatal("failed to init credential sealer", zap.Error(err))
		}
		files, err := storage.NewLocalStorage(cfg.Runs.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		exporter := service.NewExportService(files, storage.NewSignedURLSigner(cfg.Runs.SignedURLSecret, cfg.Runs.SignedURLTTL),
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Runs.SignedURLTTL}, logr,
			export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewRunWorker(runRepo, workflow, sealer, lockRepo, metrics, logr)
		queue = jobs.NewQueue("registration-runs", worker.Handle, jobs.QueueConfig{
			Workers:        cfg.Runs.WorkerConcurrency,
			DisableRetries: true,
			Logger:         logr,
		})
		queue.Start(ctx)

		lessonDeps.Runs = runRepo
		lessonDeps.Queue = queue
		lessonDeps.Sealer = sealer
		lessonDeps.Cache = runCache
		lessonDeps.Exporter = exporter
	}
	lessonService := service.NewLessonService(lessonDeps, service.LessonServiceConfig{CleanupInterval: cfg.Runs.CleanupInterval})
	lessonService.Recover(ctx)
	lessonService.StartCleanup(ctx)

	handlers := &router.Handlers{
		User:       handler.NewUserHandler(userService),
		Auth:       handler.NewAuthHandler(authService),
		Class:      handler.NewClassHandler(classService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
		Lesson:     handler.NewLessonHandler(lessonService),
		Metrics:    handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)),
	}
	r := router.SetupRouter(cfg, router.Deps{
		Auth:        authService,
		RateCounter: rateRepo,
		Metrics:     metrics,
		Logger:      logr,
	}, handlers)

	// Lesson registration holds the request for minutes; no write timeout.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if queue != nil {
		queue.Stop()
	}
}

func buildWorkflow(ctx context.Context, cfg *config.Config, bootstrapper *portal.Bootstrapper, metrics *service.MetricsService, logr *zap.Logger) (*registration.Workflow, error) {
	analyzer, err := lessonplan.NewGeminiAnalyzer(ctx, cfg.LessonPlan)
	if err != nil {
		return nil, err
	}
	resolver := lessonplan.NewResolver(lessonplan.NewHTTPFetcher(cfg.LessonPlan.FetchTimeout, cfg.LessonPlan.MaxBytes), analyzer, logr)

	listURL := bootstrapper.URL(portal.PathRegistration)
	discoverer := registration.NewDiscoverer(registration.DiscovererConfig{
		ListURL:           listURL,
		ElementTimeout:    cfg.Portal.ElementTimeout,
		NavigationTimeout: cfg.Portal.NavigationTimeout,
	}, logr)
	engine := registration.NewEngine(registration.EngineConfig{
		ListURL:            listURL,
		CurriculumsURL:     bootstrapper.URL(portal.PathCurriculums),
		MaxAttempts:        cfg.Portal.MaxAttempts,
		RetryDelay:         cfg.Portal.RetryDelay,
		SettleDelay:        cfg.Portal.SettleDelay,
		ElementTimeout:     cfg.Portal.ElementTimeout,
		NavigationTimeout:  cfg.Portal.NavigationTimeout,
		SkipUnknownSubject: cfg.Portal.SkipUnknownSubject,
	}, registration.NewSubmitter(cfg.Portal, bootstrapper.URL(portal.PathSave)), metrics, logr)

	return registration.NewWorkflow(bootstrapper, discoverer, resolver, engine, listURL, logr), nil
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.Check {
	checks := map[string]handler.Check{
		"postgres": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}
