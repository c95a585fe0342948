package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateWindow(t *testing.T) {
	gate := NewGate(60 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 从未执行过：放行
	allowed, retryAfter := gate.Allow("alice", "share_puzzle", t0)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)

	gate.Record("alice", "share_puzzle", t0)

	// 30秒后仍在冷却中
	allowed, retryAfter = gate.Allow("alice", "share_puzzle", t0.Add(30*time.Second))
	assert.False(t, allowed)
	assert.Equal(t, 30*time.Second, retryAfter)

	// 61秒后冷却结束
	allowed, _ = gate.Allow("alice", "share_puzzle", t0.Add(61*time.Second))
	assert.True(t, allowed)

	// 正好到窗口边界也放行
	allowed, _ = gate.Allow("alice", "share_puzzle", t0.Add(60*time.Second))
	assert.True(t, allowed)
}

func TestGateAllowDoesNotRecord(t *testing.T) {
	gate := NewGate(60 * time.Second)
	t0 := time.Now()

	// 连问多次都不消耗冷却
	for i := 0; i < 5; i++ {
		allowed, _ := gate.Allow("alice", "share_puzzle", t0)
		assert.True(t, allowed)
	}
}

func TestGateIsolatesUsersAndActions(t *testing.T) {
	gate := NewGate(60 * time.Second)
	t0 := time.Now()

	gate.Record("alice", "share_puzzle", t0)

	allowed, _ := gate.Allow("bob", "share_puzzle", t0)
	assert.True(t, allowed)

	allowed, _ = gate.Allow("alice", "other_action", t0)
	assert.True(t, allowed)

	allowed, _ = gate.Allow("alice", "share_puzzle", t0)
	assert.False(t, allowed)
}

func TestGateSweep(t *testing.T) {
	gate := NewGate(60 * time.Second)
	t0 := time.Now()

	gate.Record("alice", "share_puzzle", t0)
	gate.Record("bob", "share_puzzle", t0.Add(50*time.Second))

	removed := gate.Sweep(t0.Add(70 * time.Second))
	assert.Equal(t, 1, removed)

	// bob的记录还在冷却中，不能被清掉
	allowed, _ := gate.Allow("bob", "share_puzzle", t0.Add(70*time.Second))
	assert.False(t, allowed)
}
