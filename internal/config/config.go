package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 运行时配置
type Config struct {
	Port                 string
	DataDir              string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RedisKeyPrefix       string
	MarketAPIBase        string
	TrendingPath         string
	NotifyInterval       time.Duration
	CacheRefreshInterval time.Duration
	SubscriberIDs        []string
	OperatorIDs          []string
	RateWindow           time.Duration
	AdminLimitPerWindow  int

	SeenExpiryWindow time.Duration
	SeenHardCap      int
	SeenEvictTrigger int
	SeenEvictBatch   int
	LockStaleAfter   time.Duration
	LockPollInterval time.Duration
	LockSettleDelay  time.Duration
	SaveRetries      int
	SaveRetryBackoff time.Duration
}

// Load 从环境变量加载配置
func Load() (Config, error) {
	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		DataDir:              getEnv("DATA_DIR", "./data"),
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		RedisKeyPrefix:       getEnv("REDIS_KEY_PREFIX", "token-alert"),
		MarketAPIBase:        strings.TrimSpace(os.Getenv("MARKET_API_BASE")),
		TrendingPath:         getEnv("TRENDING_PATH", "/v1/tokens/trending"),
		NotifyInterval:       getEnvAsMillis("NOTIFY_INTERVAL_MS", 60_000),
		CacheRefreshInterval: getEnvAsMillis("CACHE_REFRESH_INTERVAL_MS", 30_000),
		SubscriberIDs:        getEnvAsList("SUBSCRIBER_IDS"),
		OperatorIDs:          getEnvAsList("OPERATOR_IDS"),
		RateWindow:           15 * time.Minute,
		AdminLimitPerWindow:  getEnvAsInt("ADMIN_LIMIT_PER_WINDOW", 60),

		SeenExpiryWindow: getEnvAsMillis("SEEN_EXPIRY_MS", 24*60*60*1000),
		SeenHardCap:      getEnvAsInt("SEEN_HARD_CAP", 6000),
		SeenEvictTrigger: getEnvAsInt("SEEN_EVICT_TRIGGER", 3000),
		SeenEvictBatch:   getEnvAsInt("SEEN_EVICT_BATCH", 10),
		LockStaleAfter:   getEnvAsMillis("SEEN_LOCK_STALE_MS", 2000),
		LockPollInterval: getEnvAsMillis("SEEN_LOCK_POLL_MS", 20),
		LockSettleDelay:  getEnvAsMillis("SEEN_LOCK_SETTLE_MS", 10),
		SaveRetries:      clampInt(getEnvAsInt("SEEN_SAVE_RETRIES", 3), 1, 10),
		SaveRetryBackoff: getEnvAsMillis("SEEN_SAVE_BACKOFF_MS", 50),
	}

	if cfg.MarketAPIBase == "" {
		return Config{}, errors.New("缺少 MARKET_API_BASE")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Millisecond
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	items := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
