package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Gateway  GatewayConfig
	Payment  PaymentConfig
	Session  SessionConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

// GatewayConfig 後端 API 位址與請求逾時
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PaymentConfig 導轉型付款（xendit）完成後回到 App 的 deep link
type PaymentConfig struct {
	SuccessRedirectURL string
	FailureRedirectURL string
}

// SessionConfig 登入 token 在 Redis 中的 key
type SessionConfig struct {
	TokenKey string
}

// ServerConfig sandbox 後端監聽設定
type ServerConfig struct {
	Port            string
	InvoiceBaseURL  string
	TicketQueueSize int
	// QueueDriver redis（預設，Redis Stream）或 memory（單機 channel）
	QueueDriver string
	// DemoToken 非空時，資料庫沒有任何艙等就建立示範資料並以此 token 登入
	DemoToken string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Gateway:  GetGatewayConfig(),
		Payment:  GetPaymentConfig(),
		Session:  GetSessionConfig(),
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 2 * time.Second,
		},
		Payment: PaymentConfig{
			SuccessRedirectURL: "tiketbus://payment-callback?status=success",
			FailureRedirectURL: "tiketbus://payment-callback?status=failed",
		},
		Session: SessionConfig{
			TokenKey: "session:token",
		},
		Server: ServerConfig{
			Port:            "8080",
			InvoiceBaseURL:  "http://localhost:8080/invoices",
			TicketQueueSize: 16,
			QueueDriver:     "memory",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5433", // 測試 DB 用 5433 port
			User:     "postgres",
			Password: "postgres",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6380", // 測試 Redis 用 6380 port
			Password: "",
			DB:       1,
		},
	}
}

func GetGatewayConfig() GatewayConfig {
	timeoutMs, err := strconv.Atoi(getEnv("API_TIMEOUT_MS", "30000"))
	if err != nil {
		panic(err)
	}

	return GatewayConfig{
		BaseURL: getEnv("API_URL", "http://10.0.2.2:8000"),
		Timeout: time.Duration(timeoutMs) * time.Millisecond,
	}
}

func GetPaymentConfig() PaymentConfig {
	return PaymentConfig{
		SuccessRedirectURL: getEnv("PAYMENT_SUCCESS_URL", "tiketbus://payment-callback?status=success"),
		FailureRedirectURL: getEnv("PAYMENT_FAILURE_URL", "tiketbus://payment-callback?status=failed"),
	}
}

func GetSessionConfig() SessionConfig {
	return SessionConfig{
		TokenKey: getEnv("SESSION_TOKEN_KEY", "session:token"),
	}
}

func GetServerConfig() ServerConfig {
	size, err := strconv.Atoi(getEnv("TICKET_QUEUE_SIZE", "1024"))
	if err != nil {
		panic(err)
	}

	return ServerConfig{
		Port:            getEnv("SERVER_PORT", "8000"),
		InvoiceBaseURL:  getEnv("INVOICE_BASE_URL", "http://localhost:8000/invoices"),
		TicketQueueSize: size,
		QueueDriver:     getEnv("TICKET_QUEUE_DRIVER", "redis"),
		DemoToken:       os.Getenv("DEMO_TOKEN"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
