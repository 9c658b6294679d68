package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"skillwise_backend/internal/config"
	"skillwise_backend/internal/controller"
	"skillwise_backend/internal/repository"
	"skillwise_backend/internal/service"
	"skillwise_backend/pkg/configwatcher"
	"skillwise_backend/pkg/database"
	"skillwise_backend/pkg/logger"
	"skillwise_backend/pkg/monitoring"
	"skillwise_backend/pkg/security"
	"skillwise_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	configDir       string
	services        *services
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configMu        sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	store *repository.ReviewRepository
	cache *repository.RedisLeaderboardCache
}

type services struct {
	ledger      *service.Ledger
	quorum      *service.QuorumEvaluator
	review      *service.ReviewService
	queue       *service.QueueService
	leaderboard *service.LeaderboardService
}

type controllers struct {
	review      *controller.ReviewController
	leaderboard *controller.LeaderboardController
	statistics  *controller.StatisticsController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.configMu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.configMu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{
		store: repository.NewReviewRepository(db),
	}
	if rdb != nil {
		repos.cache = repository.NewRedisLeaderboardCache(rdb, cfg.Leaderboard.CacheTTL())
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	// 接口变量只在缓存存在时赋值，避免 typed nil
	var cache service.LeaderboardCache
	var invalidator service.Invalidator
	if repos.cache != nil {
		cache = repos.cache
		invalidator = repos.cache
	}

	s.ledger = service.NewLedger(repos.store, cfg.Ledger.Location())
	s.quorum = service.NewQuorumEvaluator()
	s.review = service.NewReviewService(repos.store, s.ledger, s.quorum, invalidator)
	s.queue = service.NewQueueService(repos.store, cfg.Queue.DefaultLimit, cfg.Queue.MaxLimit)
	s.leaderboard = service.NewLeaderboardService(repos.store, cache, cfg.Leaderboard.DefaultLimit)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.queue.SetLimits(newCfg.Queue.DefaultLimit, newCfg.Queue.MaxLimit)
		s.leaderboard.SetDefaultLimit(newCfg.Leaderboard.DefaultLimit)
		if repos.cache != nil {
			repos.cache.SetTTL(newCfg.Leaderboard.CacheTTL())
		}
	})

	return s
}

func (a *App) initControllers(s *services, repos *repositories) *controllers {
	return &controllers{
		review:      controller.NewReviewController(s.review, s.queue),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		statistics:  controller.NewStatisticsController(s.ledger),
		health:      controller.NewHealthController(repos.store),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, security.ByClientIP))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config, configDir string) *App {
	if err := logger.InitLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// 后台协程（限流清理、配置监听）的生命周期，Close 时取消
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		DB:        db,
		configDir: configDir,
		ctx:       ctx,
		cancel:    cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing, cfg.Server.Mode)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	repos := app.initRepositories(db, app.Redis, cfg)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, repos)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) startConfigWatcher() {
	if err := configwatcher.Watch(a.ctx, a.configDir, a.applyConfig); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	a.startConfigWatcher()

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	log.Println("Server exiting")
}

// Close 释放后台资源
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	logger.Log.Sync()
}
