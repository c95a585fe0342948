package stats

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/progress"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/puzzle"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/reaction"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	config.Cfg = &config.Config{}
	database.InitDB(config.SqliteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, database.DB.AutoMigrate(
		&puzzle.Puzzle{}, &progress.UserPuzzle{}, &progress.SharedMessage{}, &reaction.Event{}))
}

func seedPuzzles(t *testing.T, count int) []puzzle.Puzzle {
	t.Helper()
	puzzles := make([]puzzle.Puzzle, count)
	for i := 0; i < count; i++ {
		puzzles[i] = puzzle.Puzzle{
			UHP:      fmt.Sprintf("Base;WhiteWins;seed-%d", i),
			Solution: "wA1 /bG1",
		}
		require.NoError(t, database.DB.Create(&puzzles[i]).Error)
	}
	return puzzles
}

func TestGetPersonalStats(t *testing.T) {
	setupTestDB(t)
	puzzles := seedPuzzles(t, 5)

	// alice见过3道，解出1道，点赞1道，点踩1道
	for i := 0; i < 3; i++ {
		require.NoError(t, puzzle.ConfirmDelivery("alice", puzzles[i].ID, fmt.Sprintf("msg-%d", i)))
	}
	_, err := reaction.ApplyReaction("alice", "msg-0", reaction.SolveEmoji, reaction.ActionAdd)
	require.NoError(t, err)
	_, err = reaction.ApplyReaction("alice", "msg-0", reaction.LikeEmoji, reaction.ActionAdd)
	require.NoError(t, err)
	_, err = reaction.ApplyReaction("alice", "msg-1", reaction.DislikeEmoji, reaction.ActionAdd)
	require.NoError(t, err)

	stats, err := GetPersonalStats(database.DB, "alice")
	require.NoError(t, err)
	assert.Equal(t, &PersonalStats{
		Total:     5,
		Attempted: 3,
		Solved:    1,
		Unsolved:  2,
		Unseen:    2,
		Likes:     1,
		Dislikes:  1,
	}, stats)

	// 没有任何记录的用户
	stats, err = GetPersonalStats(database.DB, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(5), stats.Unseen)
	assert.Zero(t, stats.Attempted)
}

func TestRebuildPuzzleCountersRepairsDrift(t *testing.T) {
	setupTestDB(t)
	puzzles := seedPuzzles(t, 2)
	target := puzzles[0]

	require.NoError(t, puzzle.ConfirmDelivery("alice", target.ID, "msg-1"))
	require.NoError(t, puzzle.ConfirmDelivery("bob", target.ID, "msg-2"))
	_, err := reaction.ApplyReaction("alice", "msg-1", reaction.SolveEmoji, reaction.ActionAdd)
	require.NoError(t, err)
	_, err = reaction.ApplyReaction("bob", "msg-2", reaction.LikeEmoji, reaction.ActionAdd)
	require.NoError(t, err)

	// 手工把计数器弄脏
	require.NoError(t, database.DB.Model(&puzzle.Puzzle{}).Where("id = ?", target.ID).
		Updates(map[string]interface{}{"attempts": 99, "solves": 0, "likes": 7, "dislikes": 3}).Error)

	report, err := RebuildPuzzleCounters()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Repaired)

	got, err := puzzle.GetPuzzleByID(database.DB, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, 1, got.Solves)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 0, got.Dislikes)

	// 再跑一次应该无事可做
	report, err = RebuildPuzzleCounters()
	require.NoError(t, err)
	assert.Zero(t, report.Repaired)
}
