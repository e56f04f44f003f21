package e2e

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/slotbook/go-appointment-slot-booking/internal/api"
	"github.com/slotbook/go-appointment-slot-booking/internal/api/handler"
	"github.com/slotbook/go-appointment-slot-booking/internal/api/middleware"
	"github.com/slotbook/go-appointment-slot-booking/internal/application"
	"github.com/slotbook/go-appointment-slot-booking/internal/config"
	"github.com/slotbook/go-appointment-slot-booking/internal/infrastructure/postgres"
	redisinfra "github.com/slotbook/go-appointment-slot-booking/internal/infrastructure/redis"
)

var (
	testServer  *TestServer
	testDB      *sqlx.DB
	redisClient *redis.Client
)

// TestMain はE2Eテストのエントリポイント
// パッケージ全体で1回だけサーバーを組み立てることで高速化
func TestMain(m *testing.M) {
	cfg := config.Load()

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		os.Exit(0) // DB未起動時はスキップ
	}
	testDB = db

	// Redis接続
	rc, err := redisinfra.NewClient(&redisinfra.Config{
		Host: cfg.Redis.Host, Port: cfg.Redis.Port,
	})
	if err != nil {
		db.Close()
		os.Exit(0) // Redis未起動時はスキップ
	}
	redisClient = rc

	// サービス初期化
	slotLock := redisinfra.NewSlotLockStore(redisClient)

	bookingRepo := postgres.NewBookingRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	queueRepo := postgres.NewQueueRepository(db)
	txManager := postgres.NewTxManager(db)

	queueService := application.NewQueueService(queueRepo, bookingRepo, serviceRepo, txManager)
	bookingService := application.NewBookingService(bookingRepo, serviceRepo, slotLock, nil, queueService, &cfg.Hold)
	catalogService := application.NewCatalogService(serviceRepo)

	bookingHandler := handler.NewBookingHandler(bookingService)
	queueHandler := handler.NewQueueHandler(queueService)
	serviceHandler := handler.NewServiceHandler(catalogService)
	healthHandler := handler.NewHealthHandler()

	// Echo セットアップ
	e := echo.New()
	e.Validator = api.NewValidator()
	middleware.SetupMiddleware(e)

	e.GET("/health", healthHandler.Check)

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

	testServer = &TestServer{Echo: e}

	// テスト実行
	code := m.Run()

	// 最終クリーンアップ
	cleanupTables()
	redisClient.Close()
	db.Close()

	os.Exit(code)
}

// cleanupTables はテーブルをクリーンアップ
func cleanupTables() {
	testDB.Exec("TRUNCATE TABLE queue_entries, bookings, services RESTART IDENTITY CASCADE")
}

// getTestServer は共有サーバーを取得（テスト前にテーブルをクリーンアップ）
func getTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testServer == nil {
		t.Skip("テスト環境が利用できません")
	}
	cleanupTables()
	return testServer
}
