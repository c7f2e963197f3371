package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	handlers "LoneGuard/internal/handler"
	"LoneGuard/internal/models"
	"LoneGuard/internal/service"
	"LoneGuard/internal/weather"
	"LoneGuard/pkg/cache"
	"LoneGuard/pkg/config"
	"LoneGuard/pkg/jobqueue"
	"LoneGuard/pkg/logger"
	"LoneGuard/pkg/metrics"
	"LoneGuard/pkg/notification"
	"LoneGuard/pkg/util"
)

func main() {
	if err := config.Load(); err != nil {
		panic("failed to load config: " + err.Error())
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("database connection failed", zap.Error(err))
		panic(err)
	}
	if err := models.Migrate(db); err != nil {
		logger.Error("database migration failed", zap.Error(err))
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 延时队列与幂等缓存：有 Redis 用 Redis，否则退回进程内实现
	var queue jobqueue.Queue
	var idemStore cache.Cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, falling back to in-process queue and cache", zap.Error(err))
		queue = jobqueue.NewMemoryQueue()
	} else {
		queue = jobqueue.NewRedisQueue(rdb)
		idemStore = cache.NewRedisCache(rdb)
	}

	var notifier notification.Notifier = notification.NopNotifier{}
	if mail := notification.NewMailNotification(cfg.Mail); mail.Configured() {
		notifier = mail
	}

	wx := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout, cfg.Weather.CacheTTL)

	alertService := service.NewAlertService(db, notifier, cfg.Monitor.DedupWindow)
	monitorService := service.NewMonitorService(db, queue, alertService, cfg.Monitor.TimeoutDelay)
	sessionService := service.NewSessionService(db, monitorService)
	assessmentService := service.NewAssessmentService(db, alertService)
	reportService := service.NewReportService(db, wx, assessmentService, sessionService, monitorService)

	dispatcher := jobqueue.NewDispatcher(queue, time.Second)
	dispatcher.Register(jobqueue.KindSessionTimeout, monitorService.HandleTimeout)
	go dispatcher.Run(ctx)

	// 兜底巡检：修复队列与会话记录脱节导致的漏报
	sweeper := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := sweeper.AddFunc(cfg.Monitor.SweepSpec, func() { monitorService.Sweep(ctx) }); err != nil {
		logger.Error("sweep job registration failed", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	gin.SetMode(cfg.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), metrics.HTTPMiddleware())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := handlers.New(db, sessionService, reportService, alertService)
	h.Register(router.Group(cfg.APIPrefix), cfg.RateLimit, idemStore)

	srv := &http.Server{Addr: cfg.Addr, Handler: router}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
