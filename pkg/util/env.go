package util

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv 按环境加载 .env 文件（.env.development / .env.production）
func LoadEnv(env string) error {
	filename := ".env." + env
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		filename = ".env"
	}
	return godotenv.Load(filename)
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetIntEnv(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func GetBoolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}
	return v
}

// GetDurationEnv 解析时长环境变量，解析失败时返回默认值
func GetDurationEnv(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
