package reaction

import (
	"fmt"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
)

// PrimeDB 负责迁移reaction模块的数据库表结构
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Event{}); err != nil {
		return fmt.Errorf("无法迁移reaction_events表: %w", err)
	}
	fmt.Println("ReactionEvent数据库表迁移成功。")
	return nil
}
