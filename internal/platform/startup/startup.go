package startup

import (
	"fmt"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/metadata"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/progress"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/puzzle"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/reaction"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.PrimeDB(); err != nil {
		return err
	}
	if err := progress.PrimeDB(); err != nil {
		return err
	}
	if err := reaction.PrimeDB(); err != nil {
		return err
	}
	// puzzle依赖progress的表做选择查询，放在最后初始化并预热镜像
	if err := puzzle.PrimeCachedDB(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 是一个专门用于在运行时热重建Redis镜像的函数。
// SQLite是唯一的数据源，所以重建只是把计数器整体重新灌回Redis。
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	if err := puzzle.WarmupCache(); err != nil {
		return err
	}

	fmt.Println("缓存热重建完成。")
	return nil
}
