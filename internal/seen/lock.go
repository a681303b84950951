package seen

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// fileLock 基于标记文件的建议锁。
// 标记内容为十进制毫秒时间戳，存在即视为占用；超过陈旧阈值的标记
// 视为持有者崩溃遗留，回收后继续抢占，避免临界区内崩溃造成的死锁。
type fileLock struct {
	path         string
	staleAfter   time.Duration
	pollInterval time.Duration
	settleDelay  time.Duration
}

// acquire 轮询等待直到抢到标记，不会失败，只会延迟。
func (l *fileLock) acquire() {
	for {
		data, err := os.ReadFile(l.path)
		if err == nil {
			stamp, parseErr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
			if parseErr != nil || time.Now().UnixMilli()-stamp > l.staleAfter.Milliseconds() {
				// 内容不可解析同样按陈旧处理
				_ = os.Remove(l.path)
				continue
			}
			time.Sleep(l.pollInterval)
			continue
		}
		if !os.IsNotExist(err) {
			time.Sleep(l.pollInterval)
			continue
		}

		stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		if writeErr := os.WriteFile(l.path, []byte(stamp), 0o600); writeErr != nil {
			time.Sleep(l.pollInterval)
			continue
		}

		// 短暂停顿，降低第二个抢占者读到半写入数据的概率
		if l.settleDelay > 0 {
			time.Sleep(l.settleDelay)
		}
		return
	}
}

// release 无条件移除标记。
func (l *fileLock) release() {
	_ = os.Remove(l.path)
}
