package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Gopher0727/MessageBoard/config"
	"github.com/Gopher0727/MessageBoard/internal/api"
	"github.com/Gopher0727/MessageBoard/internal/handler"
	cache "github.com/Gopher0727/MessageBoard/internal/pkg/redis"
	"github.com/Gopher0727/MessageBoard/internal/pkg/kafka"
	"github.com/Gopher0727/MessageBoard/internal/repository"
	"github.com/Gopher0727/MessageBoard/internal/service"
	"github.com/Gopher0727/MessageBoard/internal/storage"
	"github.com/Gopher0727/MessageBoard/internal/utils"
	logger "github.com/Gopher0727/MessageBoard/middleware/log"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}

	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer appLogger.Close()

	// 初始化数据库（建表幂等）
	db, err := storage.OpenDatabase(&cfg.Database, appLogger.Logger)
	if err != nil {
		appLogger.Fatal("数据库初始化失败", zap.Error(err))
	}
	defer func() {
		if err := storage.CloseDatabase(db); err != nil {
			appLogger.Error("关闭数据库连接失败", zap.Error(err))
		} else {
			appLogger.Info("数据库连接已关闭")
		}
	}()
	store := repository.NewStore(db)

	// 初始化 Redis 资料缓存，不可用时直接读库
	var profileCache cache.ProfileCache
	if cfg.Redis.Enabled {
		var redisClient *redis.Client
		redisClient, err = storage.InitRedis(&cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis 初始化失败，资料缓存已关闭", zap.Error(err))
		} else {
			defer redisClient.Close()
			profileCache = cache.NewProfileCache(redisClient, cfg.Redis.ProfileTTL)
		}
	}

	// 初始化 Kafka Producer，失败时以降级模式运行（不发布事件）
	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(&cfg.Kafka)
		if err != nil {
			appLogger.Warn("Kafka 生产者初始化失败，事件发布已关闭", zap.Error(err))
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	// 协程池用于异步发布事件，必须在 producer 关闭前停止
	pool := utils.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appLogger.Logger)
	pool.Start()
	defer pool.Stop()

	events := service.NewEventDispatcher(publisher, pool, appLogger)

	messageService := service.NewMessageService(store, profileCache, events, appLogger)
	userService := service.NewUserService(store, profileCache, appLogger)

	messageHandler := handler.NewMessageHandler(messageService, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)

	gin.SetMode(cfg.Server.Mode)
	r := api.SetupRouter(&cfg.Server, api.NewMiddlewareManager(appLogger), messageHandler, userHandler, store)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("正在启动服务器", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("启动服务器失败", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("正在关闭服务器")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("服务器关闭超时", zap.Error(err))
	}
	// 其余资源按 defer 逆序释放：协程池 -> Kafka -> Redis -> 数据库 -> 日志
}
