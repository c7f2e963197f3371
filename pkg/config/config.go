package config

import (
	"log"
	"os"
	"time"

	"LoneGuard/pkg/logger"
	"LoneGuard/pkg/notification"
	"LoneGuard/pkg/util"
)

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type WeatherConfig struct {
	BaseURL  string        `env:"WEATHER_BASE_URL"`
	Timeout  time.Duration `env:"WEATHER_TIMEOUT"`
	CacheTTL time.Duration `env:"WEATHER_CACHE_TTL"`
}

// MonitorConfig 监护参数
type MonitorConfig struct {
	// 会话无上报超时，超时后产生 timeout 告警
	TimeoutDelay time.Duration `env:"MONITOR_TIMEOUT_DELAY"`
	// 同 (session, type) 告警去重窗口
	DedupWindow time.Duration `env:"ALERT_DEDUP_WINDOW"`
	// 兜底巡检 cron 表达式
	SweepSpec string `env:"MONITOR_SWEEP_SPEC"`
}

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	APIPrefix string `env:"API_PREFIX"`
	RateLimit string `env:"RATE_LIMIT"` // e.g. "120-M"

	Log     logger.LogConfig
	Mail    notification.MailConfig
	Redis   RedisConfig
	Weather WeatherConfig
	Monitor MonitorConfig
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnvDefault("MODE", "debug"),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		RateLimit: util.GetEnvDefault("RATE_LIMIT", "120-M"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Port:     util.GetIntEnv("MAIL_PORT"),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			From:     util.GetEnv("MAIL_FROM"),
			To:       util.GetEnv("MAIL_ALERT_TO"),
		},
		Redis: RedisConfig{
			Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
			Password: util.GetEnv("REDIS_PASSWORD"),
			DB:       int(util.GetIntEnv("REDIS_DB")),
		},
		Weather: WeatherConfig{
			BaseURL:  util.GetEnvDefault("WEATHER_BASE_URL", "https://api.open-meteo.com"),
			Timeout:  util.GetDurationEnv("WEATHER_TIMEOUT", 1200*time.Millisecond),
			CacheTTL: util.GetDurationEnv("WEATHER_CACHE_TTL", 10*time.Minute),
		},
		Monitor: MonitorConfig{
			TimeoutDelay: util.GetDurationEnv("MONITOR_TIMEOUT_DELAY", 30*time.Minute),
			DedupWindow:  util.GetDurationEnv("ALERT_DEDUP_WINDOW", 5*time.Minute),
			SweepSpec:    util.GetEnvDefault("MONITOR_SWEEP_SPEC", "*/5 * * * *"),
		},
	}
	return nil
}
