package puzzle

import (
	"fmt"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
)

// PrimeCachedDB 负责初始化puzzle模块的数据库和Redis镜像
func PrimeCachedDB() error {
	// 1. 迁移数据库表结构
	if err := migrateDB(); err != nil {
		return err
	}
	// 2. 空库时从配置的谜题文件播种
	seeded, err := SeedIfEmpty(database.DB, config.Cfg.Bot.PuzzleFile, config.Cfg.Bot.DefaultAuthor)
	if err != nil {
		return err
	}
	if seeded > 0 {
		fmt.Printf("已从 %s 播种 %d 道谜题。\n", config.Cfg.Bot.PuzzleFile, seeded)
	}
	// 3. 将计数器预热到Redis
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Puzzle{}); err != nil {
		return fmt.Errorf("无法迁移puzzle表: %w", err)
	}
	fmt.Println("Puzzle数据库表迁移成功。")
	return nil
}
