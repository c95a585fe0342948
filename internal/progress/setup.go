package progress

import (
	"fmt"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
)

// PrimeDB 负责迁移progress模块的数据库表结构
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&UserPuzzle{}, &SharedMessage{}); err != nil {
		return fmt.Errorf("无法迁移user_puzzles/shared_messages表: %w", err)
	}
	fmt.Println("UserPuzzle数据库表迁移成功。")
	return nil
}
