// 文件: pkg/config/config.go
// 运行时配置 - 环境变量加载

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	defaultHTTPAddr           = "0.0.0.0:8080"
	defaultMySQLDSN           = "root:root@tcp(127.0.0.1:3306)/ledger?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedisAddr          = "" // 空 = 不启用价格缓存
	defaultRedisDB            = 0
	defaultCacheTTLSeconds    = 30
	defaultInitialBuyingPower = "5000.00"
	defaultJournalBackend     = "off" // off / kafka / nats
	defaultNatsURL            = "nats://127.0.0.1:4222"
	defaultSnowflakeNodeID    = 0
)

// Config 服务运行时配置
type Config struct {
	HTTPAddr string
	MySQL    MySQLConfig
	Redis    RedisConfig
	Journal  JournalConfig

	// 新组合的初始购买力
	InitialBuyingPower decimal.Decimal

	// 价格缓存 TTL (秒)
	CacheTTLSeconds int

	// 订单 ID 生成器节点号 (0-1023，多实例互不相同)
	SnowflakeNodeID int64
}

// MySQLConfig MySQL 连接参数
type MySQLConfig struct {
	DSN string
}

// RedisConfig Redis 连接参数 (Addr 为空则不启用缓存)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled 是否启用 Redis
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// JournalConfig 流水事件链路配置
type JournalConfig struct {
	Backend      string   // off / kafka / nats
	KafkaBrokers []string // Backend=kafka 时必填
	NatsURL      string   // Backend=nats 时使用
}

// Load 从环境变量构建配置
func Load() (*Config, error) {
	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, err
	}

	initial, err := decimal.NewFromString(getString("INITIAL_BUYING_POWER", defaultInitialBuyingPower))
	if err != nil {
		return nil, fmt.Errorf("parse INITIAL_BUYING_POWER: %w", err)
	}

	nodeID, err := getInt("SNOWFLAKE_NODE_ID", defaultSnowflakeNodeID)
	if err != nil {
		return nil, err
	}

	journal := JournalConfig{
		Backend: getString("JOURNAL_BACKEND", defaultJournalBackend),
		NatsURL: getString("NATS_URL", defaultNatsURL),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		journal.KafkaBrokers = strings.Split(brokers, ",")
	}
	if journal.Backend == "kafka" && len(journal.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required when JOURNAL_BACKEND=kafka")
	}

	return &Config{
		HTTPAddr: getString("HTTP_ADDR", defaultHTTPAddr),
		MySQL: MySQLConfig{
			DSN: getString("MYSQL_DSN", defaultMySQLDSN),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", defaultRedisAddr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Journal:            journal,
		InitialBuyingPower: initial,
		CacheTTLSeconds:    cacheTTL,
		SnowflakeNodeID:    int64(nodeID),
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}
