package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"dwellhub/backend/internal/api"
	"dwellhub/backend/internal/api/handlers"
	"dwellhub/backend/internal/cache"
	"dwellhub/backend/internal/config"
	"dwellhub/backend/internal/db"
	"dwellhub/backend/internal/email"
	"dwellhub/backend/internal/logger"
	"dwellhub/backend/internal/services"
	"dwellhub/backend/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background worker), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		zlog.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			zlog.Warn("error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	ctxIdx, cancelIdx := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctxIdx, mongoDb); err != nil {
		cancelIdx()
		zlog.Fatal("failed to ensure MongoDB indexes", zap.Error(err))
	}
	cancelIdx()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		zlog.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			zlog.Warn("error disconnecting from Redis", zap.Error(err))
		}
	}()

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	var wg sync.WaitGroup
	var apiSrv *http.Server
	var taskSrv *asynq.Server

	zlog.Info("starting application", zap.String("mode", cfg.RunMode))

	apiMode := func() {
		notify := handlers.InquiryNotifier(func(payload tasks.InquiryNotifyPayload) error {
			return tasks.EnqueueInquiryNotify(taskClient, payload)
		})
		router := api.SetupRouter(cfg, mongoDb, redisClient, notify, zlog)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			zlog.Info("API server listening", zap.String("port", cfg.ApiPort))
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zlog.Fatal("API server error", zap.Error(err))
			}
			zlog.Info("API server stopped")
		}()
	}

	bgMode := func() {
		emailSender := email.NewSMTPSender(cfg, zlog)
		userService := services.NewUserService(mongoDb)
		processor := tasks.NewTaskProcessor(cfg, emailSender, userService, zlog)
		srv, mux := tasks.SetupServer(redisClient, processor, zlog)
		taskSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			zlog.Info("background worker starting")
			if err := taskSrv.Run(mux); err != nil {
				zlog.Fatal("background worker error", zap.Error(err))
			}
			zlog.Info("background worker stopped")
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		zlog.Fatal("invalid run mode", zap.String("mode", cfg.RunMode))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zlog.Info("shutting down", zap.String("signal", sig.String()))

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			zlog.Warn("API server shutdown error", zap.Error(err))
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	zlog.Info("server gracefully stopped")
}
