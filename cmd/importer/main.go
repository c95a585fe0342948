package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/metadata"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/puzzle"
)

// 独立的导入工具，在服务停止时也能直接操作数据库。
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("无法加载配置: %v\n", err)
		os.Exit(1)
	}

	file := flag.String("file", cfg.Bot.PuzzleFile, "谜题CSV文件路径")
	dbPath := flag.String("db", cfg.Database.Sqlite.Path, "SQLite数据库文件路径")
	author := flag.String("author", cfg.Bot.DefaultAuthor, "导入谜题的默认作者名")
	onlyIfEmpty := flag.Bool("only-if-empty", false, "仅在谜题表为空时导入（用于初始播种）")
	flag.Parse()

	if _, err := os.Stat(*file); os.IsNotExist(err) {
		fmt.Printf("谜题文件不存在: %s\n", *file)
		os.Exit(1)
	}

	database.InitDB(config.SqliteConfig{Path: *dbPath})
	if err := metadata.PrimeDB(); err != nil {
		fmt.Printf("初始化数据库失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.DB.AutoMigrate(&puzzle.Puzzle{}); err != nil {
		fmt.Printf("迁移puzzle表失败: %v\n", err)
		os.Exit(1)
	}

	mode := puzzle.ImportUpsert
	if *onlyIfEmpty {
		mode = puzzle.ImportOnlyIfEmpty
	}

	added, err := puzzle.ImportPuzzles(database.DB, *file, *author, mode)
	if err != nil {
		fmt.Printf("导入失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("已导入 %d 道谜题，作者 '%s'。\n", added, *author)
}
