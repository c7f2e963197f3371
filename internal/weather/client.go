package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"LoneGuard/pkg/cache"
	"LoneGuard/pkg/logger"
)

// Observation 一次天气观测
type Observation struct {
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
}

// Client 外部天气查询。查询失败/超时不是错误，返回 ok=false，
// 调用方在缺少天气数据的情况下继续。
type Client struct {
	http    *http.Client
	baseURL string
	cache   cache.Cache
	ttl     time.Duration
}

func NewClient(baseURL string, timeout, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = 1200 * time.Millisecond
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		cache: cache.NewGoCache(cache.LocalConfig{
			DefaultExpiration: cacheTTL,
			CleanupInterval:   2 * cacheTTL,
		}),
		ttl: cacheTTL,
	}
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Fetch 查询坐标处的当前天气，结果按约 100m 网格短期缓存
func (c *Client) Fetch(ctx context.Context, lat, lng float64) (*Observation, bool) {
	key := fmt.Sprintf("wx:%.3f:%.3f", lat, lng)
	if v, ok := c.cache.Get(ctx, key); ok {
		if obs, ok := v.(*Observation); ok {
			return obs, true
		}
	}

	url := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f&current_weather=true",
		c.baseURL, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("weather lookup unavailable", zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("weather lookup unavailable", zap.Int("status", resp.StatusCode))
		return nil, false
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Debug("weather response malformed", zap.Error(err))
		return nil, false
	}

	obs := &Observation{
		Temp:      body.CurrentWeather.Temperature,
		Condition: conditionFromCode(body.CurrentWeather.WeatherCode),
	}
	_ = c.cache.Set(ctx, key, obs, c.ttl)
	return obs, true
}

// conditionFromCode WMO weather code 粗分类
func conditionFromCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "cloudy"
	case code <= 48:
		return "fog"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "showers"
	default:
		return "thunderstorm"
	}
}
