package seen

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 使用 Redis 有序集合按用户存储指纹（score 为记录毫秒时间戳）。
// 淘汰策略与文件存储一致；Redis 不可用时回退到本地文件存储，避免提醒管线中断。
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	fallback  *Store
	opts      Options
	timeout   time.Duration
}

func NewRedisStore(client *redis.Client, keyPrefix string, fallback *Store, opts Options) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		fallback:  fallback,
		opts:      opts,
		timeout:   800 * time.Millisecond,
	}
}

// ReadValid 清理过期成员后返回有效指纹集合；任一步失败即回退文件存储。
func (r *RedisStore) ReadValid(userID string) map[string]struct{} {
	if r == nil || r.client == nil {
		return r.fallback.ReadValid(userID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	key := r.key(userID)
	if err := r.purgeExpired(ctx, key); err != nil {
		return r.fallback.ReadValid(userID)
	}

	hashes, err := r.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return r.fallback.ReadValid(userID)
	}

	result := make(map[string]struct{}, len(hashes))
	for _, hash := range hashes {
		result[hash] = struct{}{}
	}
	return result
}

// Record 幂等记录一条指纹（ZAddNX 保留首次记录时间），随后套用触发淘汰与硬上限截断。
func (r *RedisStore) Record(userID, fingerprint string) {
	if r == nil || r.client == nil {
		r.fallback.Record(userID, fingerprint)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	key := r.key(userID)
	if err := r.purgeExpired(ctx, key); err != nil {
		r.fallback.Record(userID, fingerprint)
		return
	}

	added, err := r.client.ZAddNX(ctx, key, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: fingerprint,
	}).Result()
	if err != nil {
		r.fallback.Record(userID, fingerprint)
		return
	}
	if added == 0 {
		// 已存在，幂等空操作
		return
	}

	size, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return
	}

	if r.opts.EvictTrigger > 0 && size >= int64(r.opts.EvictTrigger) {
		if err := r.client.ZRemRangeByRank(ctx, key, 0, int64(r.opts.EvictBatch)-1).Err(); err != nil {
			return
		}
		size -= int64(r.opts.EvictBatch)
	}

	if r.opts.HardCap > 0 && size > int64(r.opts.HardCap) {
		_ = r.client.ZRemRangeByRank(ctx, key, 0, size-int64(r.opts.HardCap)-1).Err()
	}
}

// Delete 移除用户的整个指纹集合，失败原样上报给运维调用方。
func (r *RedisStore) Delete(userID string) error {
	if r == nil || r.client == nil {
		return r.fallback.Delete(userID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("删除 Redis 指纹集合失败: %w", err)
	}

	// 本地可能还留有 Redis 启用前的旧文件，一并清掉
	return r.fallback.Delete(userID)
}

func (r *RedisStore) purgeExpired(ctx context.Context, key string) error {
	cutoff := time.Now().Add(-r.opts.ExpiryWindow).UnixMilli()
	return r.client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff)).Err()
}

func (r *RedisStore) key(userID string) string {
	return fmt.Sprintf("%s:seen:%s", r.keyPrefix, userID)
}
