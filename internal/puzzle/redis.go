package puzzle

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
)

// 定义与谜题相关的Redis键名
const (
	StatsKey   = "puzzle:stats"
	RankingKey = "puzzle:ranking"
)

// CounterStats 定义了在Redis puzzle:stats Hash中镜像的谜题计数器
type CounterStats struct {
	Attempts int `json:"attempts"`
	Solves   int `json:"solves"`
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// rankingScore 是排行榜的排序依据：净好评数
func rankingScore(likes, dislikes int) float64 {
	return float64(likes - dislikes)
}

// WarmupCache 从SQLite加载全部谜题计数器到Redis。
// 此函数不包含锁，调用方需要确保在安全的时机（如单线程启动或健康检查重建时）调用。
func WarmupCache() error {
	puzzles, err := ListPuzzles(database.DB)
	if err != nil {
		return fmt.Errorf("无法从SQLite读取谜题数据: %w", err)
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, StatsKey, RankingKey)

	for _, p := range puzzles {
		stats := CounterStats{
			Attempts: p.Attempts,
			Solves:   p.Solves,
			Likes:    p.Likes,
			Dislikes: p.Dislikes,
		}
		statsJSON, _ := json.Marshal(stats)
		member := strconv.FormatUint(uint64(p.ID), 10)
		pipe.HSet(database.Ctx, StatsKey, member, statsJSON)
		pipe.ZAdd(database.Ctx, RankingKey, redis.Z{
			Score:  rankingScore(p.Likes, p.Dislikes),
			Member: member,
		})
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热谜题计数器到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 条谜题的计数器到Redis。\n", len(puzzles))
	return nil
}

// UpdateStatsCache 在事务提交后，把单个谜题的最新计数器镜像到Redis。
// Redis不健康时直接跳过，等待健康检查触发整体重建。
func UpdateStatsCache(p *Puzzle) {
	if !database.IsRedisHealthy() {
		return
	}

	stats := CounterStats{
		Attempts: p.Attempts,
		Solves:   p.Solves,
		Likes:    p.Likes,
		Dislikes: p.Dislikes,
	}
	statsJSON, _ := json.Marshal(stats)
	member := strconv.FormatUint(uint64(p.ID), 10)

	pipe := database.RDB.Pipeline()
	pipe.HSet(database.Ctx, StatsKey, member, statsJSON)
	pipe.ZAdd(database.Ctx, RankingKey, redis.Z{
		Score:  rankingScore(p.Likes, p.Dislikes),
		Member: member,
	})
	if _, err := pipe.Exec(database.Ctx); err != nil {
		fmt.Printf("警告: 无法更新谜题 %d 的Redis镜像: %v\n", p.ID, err)
	}
}

// RemoveFromCache 在谜题被删除后清理它的Redis镜像。
func RemoveFromCache(id uint) {
	if !database.IsRedisHealthy() {
		return
	}

	member := strconv.FormatUint(uint64(id), 10)
	pipe := database.RDB.Pipeline()
	pipe.HDel(database.Ctx, StatsKey, member)
	pipe.ZRem(database.Ctx, RankingKey, member)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		fmt.Printf("警告: 无法清理谜题 %d 的Redis镜像: %v\n", id, err)
	}
}

// GetCachedStats 从Redis读取单个谜题的计数器，未命中时返回nil。
func GetCachedStats(id uint) (*CounterStats, error) {
	member := strconv.FormatUint(uint64(id), 10)
	statsJSON, err := database.RDB.HGet(database.Ctx, StatsKey, member).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法从Redis读取谜题 %d 的计数器: %w", id, err)
	}

	var stats CounterStats
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return nil, fmt.Errorf("谜题 %d 的Redis计数器数据损坏: %w", id, err)
	}
	return &stats, nil
}

// RankingEntry 是排行榜中的一项。
type RankingEntry struct {
	PuzzleID uint    `json:"id"`
	Score    float64 `json:"score"`
}

// GetRanking 按净好评数从高到低读取前limit个谜题。
func GetRanking(limit int64) ([]RankingEntry, error) {
	results, err := database.RDB.ZRevRangeWithScores(database.Ctx, RankingKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis读取排行榜: %w", err)
	}

	entries := make([]RankingEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, RankingEntry{PuzzleID: uint(id), Score: z.Score})
	}
	return entries, nil
}
