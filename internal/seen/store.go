package seen

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Options 存储策略参数，均可由配置覆盖
type Options struct {
	ExpiryWindow     time.Duration
	HardCap          int
	EvictTrigger     int
	EvictBatch       int
	LockStaleAfter   time.Duration
	LockPollInterval time.Duration
	LockSettleDelay  time.Duration
	SaveRetries      int
	SaveRetryBackoff time.Duration
}

// DefaultOptions 默认策略：24 小时过期，触发阈值 3000，硬上限 6000
func DefaultOptions() Options {
	return Options{
		ExpiryWindow:     24 * time.Hour,
		HardCap:          6000,
		EvictTrigger:     3000,
		EvictBatch:       10,
		LockStaleAfter:   2 * time.Second,
		LockPollInterval: 20 * time.Millisecond,
		LockSettleDelay:  10 * time.Millisecond,
		SaveRetries:      3,
		SaveRetryBackoff: 50 * time.Millisecond,
	}
}

// record 持久化的单条指纹记录
type record struct {
	Hash string `json:"hash"`
	TS   int64  `json:"ts"`
}

// Store 按用户持久化已推送代币指纹，用于避免重复提醒。
// 每个用户一个记录文件加一个旁路锁标记文件；进程内再叠加按用户的互斥锁，
// 保证同一用户的读改写串行化，不同用户互不影响。
type Store struct {
	dataDir string
	opts    Options

	mu    sync.Mutex
	userL map[string]*sync.Mutex
}

func NewStore(dataDir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	return &Store{
		dataDir: dataDir,
		opts:    opts,
		userL:   make(map[string]*sync.Mutex),
	}, nil
}

// ReadValid 返回用户尚在有效期内的指纹集合。
// 文件缺失或损坏按空集处理；过期记录顺带清理并尽力回写。永不向调用方抛错。
func (s *Store) ReadValid(userID string) map[string]struct{} {
	unlock := s.acquire(userID)
	defer unlock()

	records := s.loadRecords(userID)
	valid, removed := s.filterExpired(records)

	if removed > 0 {
		if err := s.saveWithRetry(userID, valid); err != nil {
			log.Printf("seen-store 压缩回写失败(已忽略) user=%s removed=%d err=%v", userID, removed, err)
		}
	}

	result := make(map[string]struct{}, len(valid))
	for _, item := range valid {
		result[item.Hash] = struct{}{}
	}
	return result
}

// Record 记录一条指纹。同一指纹重复记录是幂等空操作。
// 达到触发阈值时先淘汰最旧一批，仍超硬上限再截断到最近 HardCap 条。
// 持久化失败重试后仍失败则记日志放弃，本次记录效果丢失。
func (s *Store) Record(userID, fingerprint string) {
	unlock := s.acquire(userID)
	defer unlock()

	records := s.loadRecords(userID)
	valid, _ := s.filterExpired(records)

	for _, item := range valid {
		if item.Hash == fingerprint {
			return
		}
	}

	valid = append(valid, record{Hash: fingerprint, TS: time.Now().UnixMilli()})

	if s.opts.EvictTrigger > 0 && len(valid) >= s.opts.EvictTrigger {
		drop := s.opts.EvictBatch
		if drop > len(valid) {
			drop = len(valid)
		}
		valid = valid[drop:]
	}

	if s.opts.HardCap > 0 && len(valid) > s.opts.HardCap {
		valid = valid[len(valid)-s.opts.HardCap:]
	}

	if err := s.saveWithRetry(userID, valid); err != nil {
		log.Printf("seen-store 持久化失败(本次记录丢弃) user=%s hash=%s err=%v", userID, fingerprint, err)
	}
}

// Delete 无条件移除用户的记录文件，供运维删除接口调用。
// 文件本就不存在视为成功；其他失败原样上报，不做重试。
func (s *Store) Delete(userID string) error {
	unlock := s.acquire(userID)
	defer unlock()

	if err := os.Remove(s.recordPath(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除指纹文件失败: %w", err)
	}
	return nil
}

// acquire 先取进程内按用户互斥锁，再抢磁盘标记；返回对应的释放函数。
func (s *Store) acquire(userID string) func() {
	s.mu.Lock()
	userLock, exists := s.userL[userID]
	if !exists {
		userLock = &sync.Mutex{}
		s.userL[userID] = userLock
	}
	s.mu.Unlock()

	userLock.Lock()

	marker := &fileLock{
		path:         s.lockPath(userID),
		staleAfter:   s.opts.LockStaleAfter,
		pollInterval: s.opts.LockPollInterval,
		settleDelay:  s.opts.LockSettleDelay,
	}
	marker.acquire()

	return func() {
		marker.release()
		userLock.Unlock()
	}
}

// loadRecords 读取记录文件；缺失、损坏或异形数据一律按空序列处理，绝不上抛。
func (s *Store) loadRecords(userID string) []record {
	data, err := os.ReadFile(s.recordPath(userID))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("seen-store 读取失败(按空集处理) user=%s err=%v", userID, err)
		}
		return nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("seen-store 文件损坏(按空集处理，下次写入覆盖) user=%s err=%v", userID, err)
		return nil
	}

	valid := make([]record, 0, len(records))
	for _, item := range records {
		if item.Hash == "" || item.TS <= 0 {
			continue
		}
		valid = append(valid, item)
	}
	return valid
}

func (s *Store) filterExpired(records []record) ([]record, int) {
	cutoff := time.Now().Add(-s.opts.ExpiryWindow).UnixMilli()

	valid := make([]record, 0, len(records))
	for _, item := range records {
		if item.TS >= cutoff {
			valid = append(valid, item)
		}
	}
	return valid, len(records) - len(valid)
}

// saveWithRetry 线性退避重试写入：第 n 次失败后等待 n×退避间隔。
func (s *Store) saveWithRetry(userID string, records []record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("编码指纹记录失败: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.SaveRetries; attempt++ {
		lastErr = os.WriteFile(s.recordPath(userID), data, 0o600)
		if lastErr == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * s.opts.SaveRetryBackoff)
	}
	return fmt.Errorf("写入指纹文件失败: %w", lastErr)
}

func (s *Store) recordPath(userID string) string {
	return filepath.Join(s.dataDir, "sent_"+sanitizeID(userID)+".json")
}

func (s *Store) lockPath(userID string) string {
	return filepath.Join(s.dataDir, "sent_"+sanitizeID(userID)+".lock")
}

// sanitizeID 把用户标识收敛成安全的文件名成分
func sanitizeID(userID string) string {
	result := make([]rune, 0, len(userID))
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			result = append(result, r)
		default:
			result = append(result, '_')
		}
	}
	if len(result) == 0 {
		return "_"
	}
	return string(result)
}
