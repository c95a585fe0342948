package puzzle

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/metadata"
)

// Record 是从谜题文件里解析出的一条待导入谜题。
type Record struct {
	UHP      string
	Solution string
	Ply      *int
	Author   string
}

// ImportMode 控制导入操作对已有数据的态度。
type ImportMode string

const (
	// ImportOnlyIfEmpty 仅在谜题表为空时导入，用于首次播种
	ImportOnlyIfEmpty ImportMode = "only_if_empty"
	// ImportUpsert 按uhp自然键upsert，覆盖内容字段但不触碰计数器
	ImportUpsert ImportMode = "upsert"
)

// ParseTrainerLine 解析谜题文件中的一行：
//
//	<variant>;InProgress;White[NN];<move>;...;<last_move> <ply> <solution...>
//
// 从中提取出uhp（去掉InProgress和执方段后重组的局面串）、
// 解法前紧邻的半回合数ply，以及ply之后的解法着法序列。
// 不符合该格式的行返回nil，由调用方静默跳过。
func ParseTrainerLine(line string, defaultAuthor string) *Record {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	parts := strings.Split(line, ";")
	if len(parts) < 4 {
		return nil
	}

	variant := strings.TrimSpace(parts[0])
	// 丢弃InProgress和White[NN]/Black[NN]两段
	moveSegments := append([]string(nil), parts[3:]...)

	lastSegment := strings.TrimSpace(moveSegments[len(moveSegments)-1])
	tokens := strings.Fields(lastSegment)

	// 从后往前找最后一个纯数字token，它就是ply
	plyIndex := -1
	for i := len(tokens) - 1; i >= 0; i-- {
		if isDigits(tokens[i]) {
			plyIndex = i
			break
		}
	}
	if plyIndex < 0 || plyIndex == len(tokens)-1 {
		return nil
	}

	ply, err := strconv.Atoi(tokens[plyIndex])
	if err != nil {
		return nil
	}

	solution := strings.TrimSpace(strings.Join(tokens[plyIndex+1:], " "))
	if solution == "" {
		return nil
	}

	// 末段里ply之前的部分才是真正的最后一着
	moveSegments[len(moveSegments)-1] = strings.TrimSpace(strings.Join(tokens[:plyIndex], " "))

	uhpSegments := make([]string, 0, len(moveSegments)+1)
	uhpSegments = append(uhpSegments, variant)
	uhpSegments = append(uhpSegments, moveSegments...)
	nonEmpty := uhpSegments[:0]
	for _, seg := range uhpSegments {
		if seg != "" {
			nonEmpty = append(nonEmpty, seg)
		}
	}

	author := defaultAuthor
	if author == "" {
		author = "Mzinga"
	}

	return &Record{
		UHP:      strings.Join(nonEmpty, ";"),
		Solution: solution,
		Ply:      &ply,
		Author:   author,
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LoadPuzzleFile 逐行读取谜题文件并解析，坏行跳过不报错。
func LoadPuzzleFile(path string, defaultAuthor string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开谜题文件 %s: %w", path, err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if record := ParseTrainerLine(scanner.Text(), defaultAuthor); record != nil {
			records = append(records, *record)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取谜题文件 %s 失败: %w", path, err)
	}
	return records, nil
}

// UpsertPuzzles 按uhp自然键批量写入谜题。
// 冲突时只覆盖内容字段，派生计数器保持不变。
func UpsertPuzzles(db *gorm.DB, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	puzzles := make([]Puzzle, len(records))
	for i, record := range records {
		puzzles[i] = Puzzle{
			UHP:      record.UHP,
			Solution: record.Solution,
			Ply:      record.Ply,
			Author:   record.Author,
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uhp"}},
			DoUpdates: clause.AssignmentColumns([]string{"solution", "ply", "author", "updated_at"}),
		}).CreateInBatches(puzzles, 200).Error
	})
	if err != nil {
		return 0, fmt.Errorf("无法写入谜题: %w", err)
	}
	return len(puzzles), nil
}

// ImportPuzzles 从文件导入谜题，并把导入结果记入metadata表。
func ImportPuzzles(db *gorm.DB, path, defaultAuthor string, mode ImportMode) (int, error) {
	if mode == ImportOnlyIfEmpty {
		count, err := CountPuzzles(db)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			return 0, nil
		}
	}

	records, err := LoadPuzzleFile(path, defaultAuthor)
	if err != nil {
		return 0, err
	}

	added, err := UpsertPuzzles(db, records)
	if err != nil {
		return 0, err
	}

	if err := metadata.SetLastImportCount(db, added); err != nil {
		return added, err
	}
	if err := metadata.SetValue(db, metadata.LastImportAtKey, time.Now().Format(time.RFC3339)); err != nil {
		return added, err
	}
	if err := metadata.SetValue(db, metadata.LastImportFileKey, path); err != nil {
		return added, err
	}
	return added, nil
}

// SeedIfEmpty 在启动时为空库播种谜题，文件不存在时静默跳过。
func SeedIfEmpty(db *gorm.DB, path, defaultAuthor string) (int, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, nil
	}
	return ImportPuzzles(db, path, defaultAuthor, ImportOnlyIfEmpty)
}
