package main

import (
	"context"
	"log"
	"time"

	"token-alert-relay/internal/api"
	"token-alert-relay/internal/config"
	"token-alert-relay/internal/market"
	"token-alert-relay/internal/notify"
	"token-alert-relay/internal/seen"

	"github.com/redis/go-redis/v9"
)

type seenStore interface {
	ReadValid(userID string) map[string]struct{}
	Record(userID, fingerprint string)
	Delete(userID string) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	opts := seen.Options{
		ExpiryWindow:     cfg.SeenExpiryWindow,
		HardCap:          cfg.SeenHardCap,
		EvictTrigger:     cfg.SeenEvictTrigger,
		EvictBatch:       cfg.SeenEvictBatch,
		LockStaleAfter:   cfg.LockStaleAfter,
		LockPollInterval: cfg.LockPollInterval,
		LockSettleDelay:  cfg.LockSettleDelay,
		SaveRetries:      cfg.SaveRetries,
		SaveRetryBackoff: cfg.SaveRetryBackoff,
	}

	fileStore, err := seen.NewStore(cfg.DataDir, opts)
	if err != nil {
		log.Fatalf("指纹存储初始化失败: %v", err)
	}

	var store seenStore = fileStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		pingErr := redisClient.Ping(ctx).Err()
		cancel()
		if pingErr != nil {
			log.Printf("Redis 连接失败，使用本地文件存储: %v", pingErr)
		} else {
			log.Printf("Redis 已连接，启用 Redis 指纹存储")
			store = seen.NewRedisStore(redisClient, cfg.RedisKeyPrefix, fileStore, opts)
		}
	}

	marketClient := market.NewClient(cfg.MarketAPIBase, cfg.TrendingPath)
	cache := market.NewCache()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refreshCtx, refreshCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := cache.Refresh(refreshCtx, marketClient); err != nil {
		log.Printf("启动时刷新代币缓存失败(稍后定时重试): %v", err)
	}
	refreshCancel()

	go refreshLoop(ctx, cache, marketClient, cfg.CacheRefreshInterval)

	pipeline := notify.NewPipeline(
		cache,
		notify.NewLogSender(),
		notify.StaticSubscribers(cfg.SubscriberIDs),
		store,
		seen.Fingerprint,
		cfg.NotifyInterval,
	)
	go pipeline.Run(ctx)

	srv := api.NewServer(cfg, store, cache)

	log.Printf("Token Alert Relay 启动: :%s", cfg.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("服务异常退出: %v", err)
	}
}

func refreshLoop(ctx context.Context, cache *market.Cache, client *market.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := cache.Refresh(refreshCtx, client); err != nil {
				log.Printf("刷新代币缓存失败: %v", err)
			}
			cancel()
		}
	}
}
