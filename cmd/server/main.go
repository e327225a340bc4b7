// 文件: cmd/server/main.go
// 组合账本服务入口
//
// 装配顺序:
// 1. 配置 / 日志
// 2. MySQL (gorm) + 建表
// 3. Redis 价格缓存 (可选)
// 4. 流水链路 Kafka/NATS (可选)
// 5. 账本服务 + HTTP 接口
// 6. 优雅停机

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mono.com/pkg/api"
	"mono.com/pkg/buyingpower"
	"mono.com/pkg/config"
	"mono.com/pkg/inventory"
	"mono.com/pkg/journal"
	"mono.com/pkg/marketdata"
	"mono.com/pkg/order"
	"mono.com/pkg/portfolio"
	"mono.com/pkg/store"
	"mono.com/pkg/trading"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	if err := order.InitSnowflake(cfg.SnowflakeNodeID); err != nil {
		logrus.Fatalf("init snowflake: %v", err)
	}

	// ===== MySQL =====
	db, err := gorm.Open(gormmysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logrus.Fatalf("connect mysql: %v", err)
	}

	if err := db.AutoMigrate(
		&buyingpower.Account{},
		&inventory.Position{},
		&order.Order{},
		&journal.JournalRecord{},
	); err != nil {
		logrus.Fatalf("migrate tables: %v", err)
	}

	txManager := store.NewGormTxManager(db)

	// ===== 价格源 (可选 Redis 缓存) =====
	var prices marketdata.PriceSource = marketdata.NewStaticSource()
	if cfg.Redis.Enabled() {
		rds := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rds.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("connect redis: %v", err)
		}
		prices = marketdata.NewCachedSourceTTL(prices, rds, time.Duration(cfg.CacheTTLSeconds)*time.Second)
		logrus.Info("price cache enabled")
	}

	// ===== 流水链路 (可选) =====
	journalRepo := journal.NewMySQLRepository(db)
	publisher, writer := setupJournal(cfg.Journal, journalRepo)
	if writer != nil {
		writer.Start()
		defer writer.Stop()
	}

	// ===== 账本服务 =====
	funds := buyingpower.NewService(buyingpower.NewMySQLRepository(db), txManager, cfg.InitialBuyingPower)
	holdings := inventory.NewService(inventory.NewMySQLRepository(db), txManager)
	orders := order.NewService(order.NewMySQLOrderRepository(db))

	tradingSvc := trading.NewService(orders, funds, holdings, prices, txManager, publisher)
	portfolioSvc := portfolio.NewService(funds, holdings, orders)

	// ===== HTTP =====
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewHandler(tradingSvc, portfolioSvc, journalRepo),
	}

	go func() {
		logrus.Infof("http server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("http server: %v", err)
		}
	}()

	// ===== 优雅停机 =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Warnf("http shutdown: %v", err)
	}
}

// setupJournal 按配置装配流水链路
// kafka: 批量落库器; nats: 队列订阅落库器; off: 关闭
func setupJournal(cfg config.JournalConfig, repo journal.Repository) (journal.Publisher, journal.Writer) {
	switch cfg.Backend {
	case "kafka":
		publisher, err := journal.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			logrus.Fatalf("create kafka journal publisher: %v", err)
		}

		writer, err := journal.NewDBWriter(journal.DefaultDBWriterConfig(cfg.KafkaBrokers), repo)
		if err != nil {
			logrus.Fatalf("create journal db writer: %v", err)
		}

		logrus.Info("journal stream enabled (kafka)")
		return publisher, writer

	case "nats":
		publisher, err := journal.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			logrus.Fatalf("create nats journal publisher: %v", err)
		}

		writer, err := journal.NewNatsDBWriter(cfg.NatsURL, repo)
		if err != nil {
			logrus.Fatalf("create nats journal writer: %v", err)
		}

		logrus.Info("journal stream enabled (nats)")
		return publisher, writer

	default:
		return nil, nil
	}
}
