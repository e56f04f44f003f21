package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/slotbook/go-appointment-slot-booking/internal/api"
	"github.com/slotbook/go-appointment-slot-booking/internal/api/handler"
	custommiddleware "github.com/slotbook/go-appointment-slot-booking/internal/api/middleware"
	"github.com/slotbook/go-appointment-slot-booking/internal/application"
	"github.com/slotbook/go-appointment-slot-booking/internal/config"
	"github.com/slotbook/go-appointment-slot-booking/internal/infrastructure/postgres"
	"github.com/slotbook/go-appointment-slot-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/slotbook/go-appointment-slot-booking/internal/infrastructure/redis"
	"github.com/slotbook/go-appointment-slot-booking/internal/pkg/logger"
	"github.com/slotbook/go-appointment-slot-booking/internal/pkg/metrics"
	"github.com/slotbook/go-appointment-slot-booking/internal/worker"
)

func main() {
	cfg := config.Load()

	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Redis接続に失敗", zap.Error(err))
	}
	defer redisClient.Close()

	// RabbitMQ接続（設定がある場合のみ）
	var publisher application.EventPublisher
	if cfg.RabbitMQ.Enabled() {
		pub, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Fatal("RabbitMQ接続に失敗", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
		logger.Info("予約イベント発行を有効化", zap.String("exchange", cfg.RabbitMQ.Exchange))
	} else {
		logger.Info("RABBITMQ_URL が未設定のため予約イベント発行は無効")
	}

	// リポジトリ
	bookingRepo := postgres.NewBookingRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	queueRepo := postgres.NewQueueRepository(db)
	txManager := postgres.NewTxManager(db)

	// スロットロック
	slotLock := redisinfra.NewSlotLockStore(redisClient)

	// アプリケーションサービス
	queueService := application.NewQueueService(queueRepo, bookingRepo, serviceRepo, txManager)
	bookingService := application.NewBookingService(bookingRepo, serviceRepo, slotLock, publisher, queueService, &cfg.Hold)
	catalogService := application.NewCatalogService(serviceRepo)

	// 期限切れ仮押さえリーパー
	reaper := worker.NewExpiredHoldReaper(bookingService, cfg.Hold.ReaperInterval)
	go reaper.Start(context.Background())

	// Echo設定
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ハンドラー
	bookingHandler := handler.NewBookingHandler(bookingService)
	queueHandler := handler.NewQueueHandler(queueService)
	serviceHandler := handler.NewServiceHandler(catalogService)
	healthHandler := handler.NewHealthHandler()

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")

	v1.POST("/bookings/hold", bookingHandler.Hold)
	v1.POST("/bookings/confirm", bookingHandler.Confirm)
	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings", bookingHandler.List)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	v1.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)

	v1.POST("/queue/walk-in", queueHandler.AddWalkIn)
	v1.GET("/queue", queueHandler.GetBoard)
	v1.PATCH("/queue/:id/status", queueHandler.UpdateStatus)

	v1.POST("/services", serviceHandler.Create)
	v1.GET("/services", serviceHandler.ListByProvider)
	v1.GET("/services/:id", serviceHandler.GetByID)

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	logger.Info("サーバー起動",
		zap.String("port", cfg.Server.Port),
		zap.Duration("hold_ttl", cfg.Hold.TTL),
		zap.Duration("reaper_interval", cfg.Hold.ReaperInterval),
		zap.Bool("auto_confirm", cfg.Hold.AutoConfirm),
	)

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("シャットダウン開始")

	// リーパーを停止してからHTTPを閉じる
	reaper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
