package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/cache"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/config"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/handler"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/repository"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/repository/memstore"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger := utils.NewLogger("")
		logger.Error().Err(err).Msg("无法加载配置文件")
		return
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := utils.NewLogger(cfg.Environment)

	/**********************************************
	 * 连接数据库
	 **********************************************/
	var store service.Store
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn().Msg("使用内存存储，重启后数据会丢失")
		store = memstore.New()
	default:
		dbpool, err := openDB(cfg)
		if err != nil {
			logger.Error().Err(err).Msg("无法连接到数据库")
			return
		}
		defer dbpool.Close()

		store = repository.NewRepository(cfg, dbpool)
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	var weekCache *cache.WeekCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:    cfg.Redis.Password,
			DB:          0,
			DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
		})
		defer rdb.Close()

		weekCache = cache.NewWeekCache(
			rdb,
			time.Duration(cfg.Cache.WeekTTL)*time.Second,
			time.Duration(cfg.Redis.OperationExpiration)*time.Second,
		)
		if err := weekCache.Ping(context.Background()); err != nil {
			// 缓存不可用时仍然可以提供服务
			logger.Warn().Err(err).Msg("无法连接到 redis")
		}
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	var publisher handler.Publisher
	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error().Err(err).Msg("无法连接到 rabbitmq")
			return
		}
		defer conn.Close()

		ch, err := openNotificationChannel(conn)
		if err != nil {
			logger.Error().Err(err).Msg("无法声明通知队列")
			return
		}
		defer ch.Close()

		publisher = ch
	} else {
		logger.Info().Msg("未配置 rabbitmq，发布通知已关闭")
	}

	/**********************************************
	 * 创建 handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, store, weekCache, publisher, logger)
	if err != nil {
		logger.Error().Err(err).Msg("无法创建 handler")
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	serve(cfg, h, logger)
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}

	return dbpool, nil
}

func openNotificationChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		domain.NotificationQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, err
	}

	return ch, nil
}

func serve(cfg *config.Config, h *handler.Handler, logger zerolog.Logger) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("正在启动服务器...")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("无法启动服务器")
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("关闭服务器失败")
	}
	logger.Info().Msg("服务器已成功关闭")
}
