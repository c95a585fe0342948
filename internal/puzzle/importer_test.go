package puzzle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/metadata"
)

const trainerLine = `Base+MLP;InProgress;White[5];wS1;bG1 -wS1;wA1 wS1/;bG2 /bG1;wA2 \wS1 7 wA2 bG1- wG1 wS1\ bA1 /bG2`

func TestParseTrainerLine(t *testing.T) {
	record := ParseTrainerLine(trainerLine, "tester")
	require.NotNil(t, record)

	// InProgress和执方段被丢弃，末段只保留ply之前的最后一着
	assert.Equal(t, `Base+MLP;wS1;bG1 -wS1;wA1 wS1/;bG2 /bG1;wA2 \wS1`, record.UHP)
	assert.Equal(t, "wA2 bG1- wG1 wS1\\ bA1 /bG2", record.Solution)
	require.NotNil(t, record.Ply)
	assert.Equal(t, 7, *record.Ply)
	assert.Equal(t, "tester", record.Author)
}

func TestParseTrainerLineDefaultAuthor(t *testing.T) {
	record := ParseTrainerLine(trainerLine, "")
	require.NotNil(t, record)
	assert.Equal(t, "Mzinga", record.Author)
}

func TestParseTrainerLineRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"空行":        "",
		"段数不足":      "Base;InProgress;White[5]",
		"末段没有ply":   "Base;InProgress;White[5];wS1;bG1 -wS1",
		"ply后没有解法":  "Base;InProgress;White[5];wS1;bG1 -wS1 7",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, ParseTrainerLine(line, ""))
		})
	}
}

func writePuzzleFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "puzzles.csv")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestLoadPuzzleFileSkipsBadLines(t *testing.T) {
	path := writePuzzleFile(t, trainerLine+"\n\nnot a puzzle\n"+trainerLine+"\n")

	records, err := LoadPuzzleFile(path, "Mzinga")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestImportPuzzlesUpsertKeepsCounters(t *testing.T) {
	setupTestDB(t)
	path := writePuzzleFile(t, trainerLine+"\n")

	added, err := ImportPuzzles(database.DB, path, "Mzinga", ImportUpsert)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// 模拟已有的用户活动
	var p Puzzle
	require.NoError(t, database.DB.First(&p).Error)
	require.NoError(t, database.DB.Model(&p).Update("attempts", 5).Error)

	// 再次导入同一文件：内容被覆盖，计数器保持不变
	_, err = ImportPuzzles(database.DB, path, "另一位作者", ImportUpsert)
	require.NoError(t, err)

	var count int64
	require.NoError(t, database.DB.Model(&Puzzle{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, database.DB.First(&p).Error)
	assert.Equal(t, "另一位作者", p.Author)
	assert.Equal(t, 5, p.Attempts)
}

func TestImportPuzzlesOnlyIfEmpty(t *testing.T) {
	setupTestDB(t)
	path := writePuzzleFile(t, trainerLine+"\n")

	added, err := ImportPuzzles(database.DB, path, "Mzinga", ImportOnlyIfEmpty)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// 第二次播种应该被跳过
	added, err = ImportPuzzles(database.DB, path, "Mzinga", ImportOnlyIfEmpty)
	require.NoError(t, err)
	assert.Zero(t, added)

	lastCount, err := metadata.GetLastImportCount(database.DB)
	require.NoError(t, err)
	assert.Equal(t, 1, lastCount)
}

func TestSeedIfEmptyMissingFile(t *testing.T) {
	setupTestDB(t)

	added, err := SeedIfEmpty(database.DB, filepath.Join(t.TempDir(), "missing.csv"), "Mzinga")
	require.NoError(t, err)
	assert.Zero(t, added)
}
