package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"token-alert-relay/internal/market"
	"token-alert-relay/internal/seen"
)

type fakeTokens []market.Token

func (f fakeTokens) Snapshot() []market.Token {
	return f
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	failAddr string
}

func (s *fakeSender) Send(_ context.Context, userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAddr != "" && strings.Contains(text, s.failAddr) {
		return errors.New("前端暂时不可用")
	}
	s.sent = append(s.sent, userID+"|"+text)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type memStore struct {
	mu   sync.Mutex
	data map[string]map[string]struct{}
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]map[string]struct{})}
}

func (m *memStore) ReadValid(userID string) map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string]struct{}, len(m.data[userID]))
	for hash := range m.data[userID] {
		result[hash] = struct{}{}
	}
	return result
}

func (m *memStore) Record(userID, fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[userID] == nil {
		m.data[userID] = make(map[string]struct{})
	}
	m.data[userID][fingerprint] = struct{}{}
}

func newTestPipeline(tokens fakeTokens, sender *fakeSender, store SeenStore, users ...string) *Pipeline {
	return NewPipeline(tokens, sender, StaticSubscribers(users), store, seen.Fingerprint, time.Minute)
}

func TestRunCycleDoesNotRepeatAlerts(t *testing.T) {
	tokens := fakeTokens{
		{Address: "addr-1", Symbol: "AAA"},
		{Address: "addr-2", Symbol: "BBB"},
	}
	sender := &fakeSender{}
	pipeline := newTestPipeline(tokens, sender, newMemStore(), "user1")

	pipeline.RunCycle(context.Background())
	if sender.count() != 2 {
		t.Fatalf("期望首个周期推送 2 条，实际 %d 条", sender.count())
	}

	pipeline.RunCycle(context.Background())
	if sender.count() != 2 {
		t.Fatalf("期望第二个周期不重复推送，实际共 %d 条", sender.count())
	}
}

func TestSendFailureRetriedNextCycle(t *testing.T) {
	tokens := fakeTokens{
		{Address: "addr-1", Symbol: "AAA"},
		{Address: "addr-2", Symbol: "BBB"},
	}
	sender := &fakeSender{failAddr: "addr-2"}
	pipeline := newTestPipeline(tokens, sender, newMemStore(), "user1")

	pipeline.RunCycle(context.Background())
	if sender.count() != 1 {
		t.Fatalf("期望失败的代币不计入已推送，实际 %d 条", sender.count())
	}

	// 前端恢复后，失败的代币在下个周期补发
	sender.failAddr = ""
	pipeline.RunCycle(context.Background())
	if sender.count() != 2 {
		t.Fatalf("期望失败代币补发成功，实际共 %d 条", sender.count())
	}
}

func TestRunCycleNotifiesEachSubscriber(t *testing.T) {
	tokens := fakeTokens{{Address: "addr-1", Symbol: "AAA"}}
	sender := &fakeSender{}
	pipeline := newTestPipeline(tokens, sender, newMemStore(), "user1", "user2")

	pipeline.RunCycle(context.Background())
	if sender.count() != 2 {
		t.Fatalf("期望每个订阅用户各收到一条，实际 %d 条", sender.count())
	}
}

func TestEmptySnapshotSkipsCycle(t *testing.T) {
	sender := &fakeSender{}
	pipeline := newTestPipeline(fakeTokens{}, sender, newMemStore(), "user1")

	pipeline.RunCycle(context.Background())
	if sender.count() != 0 {
		t.Fatalf("期望空快照不推送，实际 %d 条", sender.count())
	}
}
