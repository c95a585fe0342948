package puzzle

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/progress"
)

var (
	// ErrPuzzleNotFound 表示请求的谜题不存在
	ErrPuzzleNotFound = errors.New("谜题不存在")
	// ErrNoPuzzleAvailable 表示当前筛选条件下没有任何谜题可选
	ErrNoPuzzleAvailable = errors.New("没有可用的谜题")
	// ErrInvalidPlyRange 表示ply筛选范围不合法
	ErrInvalidPlyRange = errors.New("ply范围不合法")
)

// Freshness 描述选出的谜题对该用户的新鲜程度。
type Freshness string

const (
	// FreshnessNew 表示用户从未见过这道谜题
	FreshnessNew Freshness = "new"
	// FreshnessUnsolved 表示用户见过但还没解出
	FreshnessUnsolved Freshness = "unsolved"
	// FreshnessAllSolved 表示范围内的谜题用户都解完了，随机重发一道
	FreshnessAllSolved Freshness = "all_solved"
)

// SelectedPuzzle 是选择器的返回结果。
type SelectedPuzzle struct {
	Puzzle    *Puzzle
	Freshness Freshness
}

// SelectPuzzleForUser 为用户选择下一道谜题，按新鲜度逐级降级：
// 先在未见过的谜题里随机选，其次是见过但未解出的，最后才从全部谜题里随机选。
// 这是一个纯读操作，不创建状态行；状态行要等投递确认后才落库。
func SelectPuzzleForUser(db *gorm.DB, userID string, minPly, maxPly *int) (*SelectedPuzzle, error) {
	if minPly != nil && *minPly < 0 {
		return nil, ErrInvalidPlyRange
	}
	if maxPly != nil && *maxPly < 0 {
		return nil, ErrInvalidPlyRange
	}
	if minPly != nil && maxPly != nil && *minPly > *maxPly {
		return nil, ErrInvalidPlyRange
	}

	p, err := RandomUnseen(db, userID, minPly, maxPly)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return &SelectedPuzzle{Puzzle: p, Freshness: FreshnessNew}, nil
	}

	p, err = RandomUnsolved(db, userID, minPly, maxPly)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return &SelectedPuzzle{Puzzle: p, Freshness: FreshnessUnsolved}, nil
	}

	p, err = RandomAny(db, minPly, maxPly)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return &SelectedPuzzle{Puzzle: p, Freshness: FreshnessAllSolved}, nil
	}

	return nil, ErrNoPuzzleAvailable
}

// BuildPuzzleLink 拼出谜题局面的分析链接。
func BuildPuzzleLink(p *Puzzle) string {
	return fmt.Sprintf("%s?uhp=%s", config.Cfg.Bot.BaseURL, url.QueryEscape(p.UHP))
}

// BuildSolutionLink 拼出解法链接：局面串后接解法着法，打开后即终局局面。
func BuildSolutionLink(p *Puzzle) string {
	combined := p.UHP + ";" + p.Solution
	return fmt.Sprintf("%s?uhp=%s", config.Cfg.Bot.BaseURL, url.QueryEscape(combined))
}

// ConfirmDelivery 在谜题消息确认送达后落库：
// 创建或更新(用户,谜题)状态行并记下消息ID。只有首次创建状态行时，
// 谜题的全局attempts计数才加一，保证计数器等于状态行总数。
func ConfirmDelivery(userID string, puzzleID uint, messageID string) error {
	var updated *Puzzle
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		p, err := GetPuzzleByID(tx, puzzleID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPuzzleNotFound
		}

		status, err := progress.GetStatusForUpdate(tx, userID, puzzleID)
		if err != nil {
			return err
		}

		now := time.Now()
		if status == nil {
			status = &progress.UserPuzzle{
				UserID:      userID,
				PuzzleID:    puzzleID,
				Attempted:   true,
				Reaction:    progress.ReactionNone,
				MessageID:   messageID,
				AttemptedAt: now,
			}
			if err := progress.SaveStatus(tx, status); err != nil {
				return err
			}
			if err := IncrementCounters(tx, puzzleID, CounterDelta{Attempts: 1}); err != nil {
				return err
			}
		} else {
			// 重复投递同一道谜题只刷新消息ID，不改动计数器
			status.MessageID = messageID
			if err := progress.SaveStatus(tx, status); err != nil {
				return err
			}
		}

		updated, err = GetPuzzleByID(tx, puzzleID)
		return err
	})
	if err != nil {
		return err
	}

	if updated != nil {
		UpdateStatsCache(updated)
	}
	return nil
}

// DeletePuzzleCascade 删除一道谜题及其全部状态行和消息映射，
// 返回被级联清理的状态行数。
func DeletePuzzleCascade(puzzleID uint) (int64, error) {
	var removedStatuses int64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		p, err := GetPuzzleByID(tx, puzzleID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPuzzleNotFound
		}

		removedStatuses, err = progress.DeleteByPuzzle(tx, puzzleID)
		if err != nil {
			return err
		}
		return DeletePuzzle(tx, puzzleID)
	})
	if err != nil {
		return 0, err
	}

	RemoveFromCache(puzzleID)
	return removedStatuses, nil
}
