package api

import (
	"sync"
	"time"
)

type windowRecord struct {
	windowStart time.Time
	count       int
}

// fixedWindowLimiter 运维接口的固定窗口限流器
type fixedWindowLimiter struct {
	mu      sync.Mutex
	records map[string]windowRecord
}

func newFixedWindowLimiter() *fixedWindowLimiter {
	return &fixedWindowLimiter{records: make(map[string]windowRecord)}
}

func (l *fixedWindowLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return false
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	record, exists := l.records[key]
	if !exists || now.Sub(record.windowStart) >= window {
		l.records[key] = windowRecord{windowStart: now, count: 1}
		l.cleanupExpired(window)
		return true
	}

	if record.count >= limit {
		return false
	}

	record.count++
	l.records[key] = record
	return true
}

func (l *fixedWindowLimiter) cleanupExpired(window time.Duration) {
	now := time.Now()
	for key, record := range l.records {
		if now.Sub(record.windowStart) >= window*2 {
			delete(l.records, key)
		}
	}
}
