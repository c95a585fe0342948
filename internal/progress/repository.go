package progress

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetStatus 读取一个(用户,谜题)对的状态行，行不存在时返回nil。
func GetStatus(db *gorm.DB, userID string, puzzleID uint) (*UserPuzzle, error) {
	var status UserPuzzle
	err := db.Where("user_id = ? AND puzzle_id = ?", userID, puzzleID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法读取用户谜题状态: %w", err)
	}
	return &status, nil
}

// GetStatusForUpdate 与GetStatus相同，但会在事务中锁定该行，
// 用于对同一(用户,谜题)对的读-改-写串行化。
func GetStatusForUpdate(tx *gorm.DB, userID string, puzzleID uint) (*UserPuzzle, error) {
	var status UserPuzzle
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND puzzle_id = ?", userID, puzzleID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法锁定用户谜题状态: %w", err)
	}
	return &status, nil
}

// SaveStatus 以upsert的方式写入一个状态行，可在事务内调用。
func SaveStatus(db *gorm.DB, status *UserPuzzle) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "puzzle_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"attempted", "solved", "reaction", "message_id",
			"attempted_at", "solved_at", "updated_at",
		}),
	}).Create(status).Error
}

// FindStatusByMessage 根据用户与私信消息ID反查状态行，未命中时返回nil。
func FindStatusByMessage(db *gorm.DB, userID, messageID string) (*UserPuzzle, error) {
	if messageID == "" {
		return nil, nil
	}
	var status UserPuzzle
	err := db.Where("user_id = ? AND message_id = ?", userID, messageID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法按消息ID查找用户谜题状态: %w", err)
	}
	return &status, nil
}

// RecordSharedMessage 以upsert的方式记录一条频道消息与谜题的映射。
func RecordSharedMessage(db *gorm.DB, messageID string, puzzleID uint, channelID, postedBy string) error {
	record := SharedMessage{
		MessageID: messageID,
		PuzzleID:  puzzleID,
		ChannelID: channelID,
		PostedBy:  postedBy,
		CreatedAt: time.Now(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"puzzle_id", "channel_id", "posted_by"}),
	}).Create(&record).Error
}

// FindSharedMessage 根据频道消息ID反查谜题映射，未命中时返回nil。
func FindSharedMessage(db *gorm.DB, messageID string) (*SharedMessage, error) {
	if messageID == "" {
		return nil, nil
	}
	var record SharedMessage
	err := db.Where("message_id = ?", messageID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法查找频道消息映射: %w", err)
	}
	return &record, nil
}

// PuzzleTally 是按谜题聚合状态行得到的计数，用于校验和修复派生计数器。
type PuzzleTally struct {
	Attempts int64
	Solves   int64
	Likes    int64
	Dislikes int64
}

// TallyForPuzzle 从状态表中为单个谜题重算各项计数。
func TallyForPuzzle(db *gorm.DB, puzzleID uint) (PuzzleTally, error) {
	var tally PuzzleTally
	err := db.Model(&UserPuzzle{}).
		Select(
			"COUNT(*) AS attempts, "+
				"SUM(CASE WHEN solved THEN 1 ELSE 0 END) AS solves, "+
				"SUM(CASE WHEN reaction = ? THEN 1 ELSE 0 END) AS likes, "+
				"SUM(CASE WHEN reaction = ? THEN 1 ELSE 0 END) AS dislikes",
			ReactionLike, ReactionDislike,
		).
		Where("puzzle_id = ?", puzzleID).
		Scan(&tally).Error
	if err != nil {
		return PuzzleTally{}, fmt.Errorf("无法聚合谜题 %d 的状态行: %w", puzzleID, err)
	}
	return tally, nil
}

// UserTally 是按用户聚合状态行得到的计数，用于个人统计。
type UserTally struct {
	Attempted int64
	Solved    int64
	Likes     int64
	Dislikes  int64
}

// TallyForUser 从状态表中为单个用户聚合各项计数。
func TallyForUser(db *gorm.DB, userID string) (UserTally, error) {
	var tally UserTally
	err := db.Model(&UserPuzzle{}).
		Select(
			"COUNT(*) AS attempted, "+
				"SUM(CASE WHEN solved THEN 1 ELSE 0 END) AS solved, "+
				"SUM(CASE WHEN reaction = ? THEN 1 ELSE 0 END) AS likes, "+
				"SUM(CASE WHEN reaction = ? THEN 1 ELSE 0 END) AS dislikes",
			ReactionLike, ReactionDislike,
		).
		Where("user_id = ?", userID).
		Scan(&tally).Error
	if err != nil {
		return UserTally{}, fmt.Errorf("无法聚合用户 %s 的状态行: %w", userID, err)
	}
	return tally, nil
}

// SeenPuzzleIDs 返回该用户已有状态行的谜题ID集合。
func SeenPuzzleIDs(db *gorm.DB, userID string) ([]uint, error) {
	var ids []uint
	err := db.Model(&UserPuzzle{}).Where("user_id = ?", userID).Pluck("puzzle_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取用户 %s 的已见谜题集合: %w", userID, err)
	}
	return ids, nil
}

// DeleteByPuzzle 在谜题被删除时级联清理它的状态行和消息映射，必须在事务内调用。
func DeleteByPuzzle(tx *gorm.DB, puzzleID uint) (int64, error) {
	statusResult := tx.Where("puzzle_id = ?", puzzleID).Delete(&UserPuzzle{})
	if statusResult.Error != nil {
		return 0, fmt.Errorf("无法删除谜题 %d 的状态行: %w", puzzleID, statusResult.Error)
	}
	if err := tx.Where("puzzle_id = ?", puzzleID).Delete(&SharedMessage{}).Error; err != nil {
		return 0, fmt.Errorf("无法删除谜题 %d 的消息映射: %w", puzzleID, err)
	}
	return statusResult.RowsAffected, nil
}
