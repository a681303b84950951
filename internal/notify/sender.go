package notify

import (
	"context"
	"log"
)

// LogSender 把提醒写入进程日志，用于未接入聊天前端的部署与本地联调。
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, userID, text string) error {
	log.Printf("提醒投递 user=%s\n%s", userID, text)
	return nil
}

// StaticSubscribers 固定订阅用户列表（由配置给出）
type StaticSubscribers []string

func (s StaticSubscribers) Subscribers() []string {
	return s
}
