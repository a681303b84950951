package market

import (
	"context"
	"sync"
	"time"
)

// Cache 进程级趋势代币缓存：启动时填充，由定时器刷新，随进程退出销毁。
// 刷新失败时保留上一份快照，提醒管线继续使用旧数据。
type Cache struct {
	mu          sync.RWMutex
	tokens      []Token
	refreshedAt time.Time
}

func NewCache() *Cache {
	return &Cache{}
}

// Refresh 拉取最新列表并替换快照；失败时不动现有快照。
func (c *Cache) Refresh(ctx context.Context, client *Client) error {
	tokens, err := client.FetchTrending(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.tokens = tokens
	c.refreshedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Snapshot 返回当前快照的副本
func (c *Cache) Snapshot() []Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Token, len(c.tokens))
	copy(result, c.tokens)
	return result
}

// Age 返回快照距上次刷新的时长；从未刷新返回负值
func (c *Cache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.refreshedAt.IsZero() {
		return -time.Millisecond
	}
	return time.Since(c.refreshedAt)
}
