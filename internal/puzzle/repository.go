package puzzle

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GetPuzzleByID 按主键读取谜题，不存在时返回nil。
func GetPuzzleByID(db *gorm.DB, id uint) (*Puzzle, error) {
	var p Puzzle
	err := db.First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法读取谜题 %d: %w", id, err)
	}
	return &p, nil
}

// CountPuzzles 返回谜题总数。
func CountPuzzles(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&Puzzle{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("无法统计谜题总数: %w", err)
	}
	return count, nil
}

// ListPuzzles 返回所有谜题，仅用于修复操作和缓存预热，不在热路径上。
func ListPuzzles(db *gorm.DB) ([]Puzzle, error) {
	var puzzles []Puzzle
	if err := db.Order("id asc").Find(&puzzles).Error; err != nil {
		return nil, fmt.Errorf("无法读取谜题列表: %w", err)
	}
	return puzzles, nil
}

// IncrementCounters 在调用方的事务内，以SQL表达式的方式原子地应用计数增量。
// 先读后加会丢失并发更新，所以这里必须用表达式而不是回写结构体。
func IncrementCounters(tx *gorm.DB, id uint, delta CounterDelta) error {
	if delta.IsZero() {
		return nil
	}
	updates := map[string]interface{}{}
	if delta.Attempts != 0 {
		updates["attempts"] = gorm.Expr("attempts + ?", delta.Attempts)
	}
	if delta.Solves != 0 {
		updates["solves"] = gorm.Expr("solves + ?", delta.Solves)
	}
	if delta.Likes != 0 {
		updates["likes"] = gorm.Expr("likes + ?", delta.Likes)
	}
	if delta.Dislikes != 0 {
		updates["dislikes"] = gorm.Expr("dislikes + ?", delta.Dislikes)
	}
	err := tx.Model(&Puzzle{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("无法更新谜题 %d 的计数器: %w", id, err)
	}
	return nil
}

// applyPlyRange 把可选的ply范围拼到查询上。
// 指定了下限时，没有ply的旧谜题会被一并排除。
func applyPlyRange(query *gorm.DB, minPly, maxPly *int) *gorm.DB {
	if minPly != nil {
		query = query.Where("puzzles.ply IS NOT NULL AND puzzles.ply >= ?", *minPly)
	}
	if maxPly != nil {
		query = query.Where("puzzles.ply <= ?", *maxPly)
	}
	return query
}

// RandomUnseen 在ply范围内，从该用户没有状态行的谜题中均匀随机取一个。
func RandomUnseen(db *gorm.DB, userID string, minPly, maxPly *int) (*Puzzle, error) {
	var p Puzzle
	query := db.Model(&Puzzle{}).
		Where("NOT EXISTS (SELECT 1 FROM user_puzzles up WHERE up.user_id = ? AND up.puzzle_id = puzzles.id)", userID)
	query = applyPlyRange(query, minPly, maxPly)
	err := query.Order("RANDOM()").Limit(1).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("随机选取未见谜题失败: %w", err)
	}
	return &p, nil
}

// RandomUnsolved 在ply范围内，从该用户见过但尚未解出的谜题中均匀随机取一个。
func RandomUnsolved(db *gorm.DB, userID string, minPly, maxPly *int) (*Puzzle, error) {
	var p Puzzle
	query := db.Model(&Puzzle{}).
		Joins("JOIN user_puzzles up ON up.puzzle_id = puzzles.id").
		Where("up.user_id = ? AND NOT up.solved", userID)
	query = applyPlyRange(query, minPly, maxPly)
	err := query.Order("RANDOM()").Limit(1).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("随机选取未解谜题失败: %w", err)
	}
	return &p, nil
}

// RandomAny 在ply范围内均匀随机取一个谜题，不考虑用户历史。
func RandomAny(db *gorm.DB, minPly, maxPly *int) (*Puzzle, error) {
	var p Puzzle
	query := applyPlyRange(db.Model(&Puzzle{}), minPly, maxPly)
	err := query.Order("RANDOM()").Limit(1).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("随机选取谜题失败: %w", err)
	}
	return &p, nil
}

// DeletePuzzle 物理删除一个谜题，必须在事务内与状态行的级联清理一起调用。
func DeletePuzzle(tx *gorm.DB, id uint) error {
	if err := tx.Delete(&Puzzle{}, id).Error; err != nil {
		return fmt.Errorf("无法删除谜题 %d: %w", id, err)
	}
	return nil
}
