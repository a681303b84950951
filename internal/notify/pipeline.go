package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"token-alert-relay/internal/market"
)

// TokenSource 提供当前趋势代币快照
type TokenSource interface {
	Snapshot() []market.Token
}

// AlertSender 把提醒投递给聊天前端（外部协作方）
type AlertSender interface {
	Send(ctx context.Context, userID, text string) error
}

// SubscriberSource 提供需要提醒的用户列表
type SubscriberSource interface {
	Subscribers() []string
}

// SeenStore 按用户记录已提醒过的代币指纹
type SeenStore interface {
	ReadValid(userID string) map[string]struct{}
	Record(userID, fingerprint string)
}

// Fingerprinter 代币地址到去重指纹的映射
type Fingerprinter func(address string) string

// Pipeline 周期性向订阅用户推送尚未提醒过的趋势代币。
// 先查已推送集合，发送成功后才记录指纹；发送失败的代币留待下个周期重试。
type Pipeline struct {
	tokens      TokenSource
	sender      AlertSender
	subscribers SubscriberSource
	store       SeenStore
	fingerprint Fingerprinter
	interval    time.Duration
}

func NewPipeline(
	tokens TokenSource,
	sender AlertSender,
	subscribers SubscriberSource,
	store SeenStore,
	fingerprint Fingerprinter,
	interval time.Duration,
) *Pipeline {
	return &Pipeline{
		tokens:      tokens,
		sender:      sender,
		subscribers: subscribers,
		store:       store,
		fingerprint: fingerprint,
		interval:    interval,
	}
}

// Run 按固定间隔执行提醒周期，直到 ctx 结束。
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle 执行一次完整的提醒周期。
// 单个用户或单个代币的失败不影响周期内其余推送。
func (p *Pipeline) RunCycle(ctx context.Context) {
	cycleID := uuid.NewString()

	tokens := p.tokens.Snapshot()
	if len(tokens) == 0 {
		return
	}

	for _, userID := range p.subscribers.Subscribers() {
		already := p.store.ReadValid(userID)

		sent := 0
		for _, token := range tokens {
			fingerprint := p.fingerprint(token.Address)
			if _, exists := already[fingerprint]; exists {
				continue
			}

			if err := p.sender.Send(ctx, userID, renderAlert(token)); err != nil {
				// 不记录指纹，下个周期重试
				log.Printf("提醒发送失败 cycle=%s user=%s token=%s err=%v", cycleID, userID, token.Symbol, err)
				continue
			}

			p.store.Record(userID, fingerprint)
			sent++
		}

		if sent > 0 {
			log.Printf("提醒周期推送完成 cycle=%s user=%s sent=%d", cycleID, userID, sent)
		}
	}
}
