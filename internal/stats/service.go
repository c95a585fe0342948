package stats

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/progress"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/puzzle"
)

// PersonalStats 是单个用户的谜题进度汇总。
type PersonalStats struct {
	Total     int64 `json:"total"`
	Attempted int64 `json:"attempted"`
	Solved    int64 `json:"solved"`
	Unsolved  int64 `json:"unsolved"`
	Unseen    int64 `json:"unseen"`
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
}

// GetPersonalStats 聚合单个用户的状态行得到进度汇总。
// unseen/unsolved是派生值，聚合后裁剪到非负，避免谜题删除瞬间出现负数。
func GetPersonalStats(db *gorm.DB, userID string) (*PersonalStats, error) {
	total, err := puzzle.CountPuzzles(db)
	if err != nil {
		return nil, err
	}

	tally, err := progress.TallyForUser(db, userID)
	if err != nil {
		return nil, err
	}

	stats := &PersonalStats{
		Total:     total,
		Attempted: tally.Attempted,
		Solved:    tally.Solved,
		Likes:     tally.Likes,
		Dislikes:  tally.Dislikes,
	}
	if unseen := total - tally.Attempted; unseen > 0 {
		stats.Unseen = unseen
	}
	if unsolved := tally.Attempted - tally.Solved; unsolved > 0 {
		stats.Unsolved = unsolved
	}
	return stats, nil
}

// RepairReport 是一次计数器修复操作的结果。
type RepairReport struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
}

// RebuildPuzzleCounters 以状态表为准重算所有谜题的派生计数器。
// 计数器本质上是缓存，协调器保证常规路径下不会偏差，
// 这个操作兜底处理手工改库或历史bug留下的脏数据。
func RebuildPuzzleCounters() (*RepairReport, error) {
	report := &RepairReport{}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		puzzles, err := puzzle.ListPuzzles(tx)
		if err != nil {
			return err
		}

		for _, p := range puzzles {
			report.Checked++

			tally, err := progress.TallyForPuzzle(tx, p.ID)
			if err != nil {
				return err
			}

			if int64(p.Attempts) == tally.Attempts &&
				int64(p.Solves) == tally.Solves &&
				int64(p.Likes) == tally.Likes &&
				int64(p.Dislikes) == tally.Dislikes {
				continue
			}

			err = tx.Model(&puzzle.Puzzle{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
				"attempts": tally.Attempts,
				"solves":   tally.Solves,
				"likes":    tally.Likes,
				"dislikes": tally.Dislikes,
			}).Error
			if err != nil {
				return fmt.Errorf("无法修复谜题 %d 的计数器: %w", p.ID, err)
			}
			report.Repaired++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 修复后整体重建Redis镜像，保证两边一致
	if database.IsRedisHealthy() {
		if err := puzzle.WarmupCache(); err != nil {
			return report, fmt.Errorf("计数器已修复但Redis镜像重建失败: %w", err)
		}
	}

	fmt.Printf("计数器修复完成: 检查 %d 条，修复 %d 条。\n", report.Checked, report.Repaired)
	return report, nil
}
