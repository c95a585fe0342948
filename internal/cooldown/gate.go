package cooldown

import (
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/hive-puzzle-bot-backend/pkg/lifecycle"
)

// Gate 是一个进程内的按(用户,动作)冷却闸门。
// 冷却记录只存在内存里，进程重启后冷却清零，这是可接受的语义：
// 闸门的目的是限制刷屏而不是精确配额。
type Gate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewGate 创建一个冷却窗口为window的闸门。
func NewGate(window time.Duration) *Gate {
	return &Gate{
		window: window,
		last:   make(map[string]time.Time),
	}
}

func gateKey(userID, actionKey string) string {
	return userID + "|" + actionKey
}

// Allow 判断该用户此刻能否执行动作。纯读操作，不记录任何状态。
// 返回false时，retryAfter是距离冷却结束还剩的时间。
func (g *Gate) Allow(userID, actionKey string, now time.Time) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.last[gateKey(userID, actionKey)]
	if !ok {
		return true, 0
	}
	elapsed := now.Sub(last)
	if elapsed >= g.window {
		return true, 0
	}
	return false, g.window - elapsed
}

// Record 在动作真正执行后记下时间戳，开始新一轮冷却。
// 与Allow分离是有意的：动作失败时调用方可以不记录，不消耗冷却。
func (g *Gate) Record(userID, actionKey string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[gateKey(userID, actionKey)] = now
}

// Sweep 清理已经过期的冷却记录，防止map无限增长。
func (g *Gate) Sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for key, last := range g.last {
		if now.Sub(last) >= g.window {
			delete(g.last, key)
			removed++
		}
	}
	return removed
}

// --- 包级全局闸门 ---

var defaultGate = NewGate(60 * time.Second)

// Configure 设置全局闸门的冷却窗口，应在启动阶段调用一次。
func Configure(window time.Duration) {
	defaultGate = NewGate(window)
}

// Allow 使用全局闸门判断冷却。
func Allow(userID, actionKey string, now time.Time) (bool, time.Duration) {
	return defaultGate.Allow(userID, actionKey, now)
}

// Record 使用全局闸门记录动作时间。
func Record(userID, actionKey string, now time.Time) {
	defaultGate.Record(userID, actionKey, now)
}

// StartJanitor 启动后台清扫协程，定期清理过期的冷却记录。
func StartJanitor(handle *lifecycle.Handle) {
	go func() {
		defer handle.Close()
		for {
			if err := handle.Sleep(5 * time.Minute); err != nil {
				fmt.Println("冷却清扫协程已退出。")
				return
			}
			defaultGate.Sweep(time.Now())
		}
	}()
}
