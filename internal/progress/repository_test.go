package progress

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	database.InitDB(config.SqliteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, database.DB.AutoMigrate(&UserPuzzle{}, &SharedMessage{}))
}

func TestSaveStatusUpsert(t *testing.T) {
	setupTestDB(t)

	status := &UserPuzzle{
		UserID:      "alice",
		PuzzleID:    1,
		Attempted:   true,
		Reaction:    ReactionNone,
		MessageID:   "msg-1",
		AttemptedAt: time.Now(),
	}
	require.NoError(t, SaveStatus(database.DB, status))

	// 同一主键再次写入应该覆盖而不是报错
	status.Reaction = ReactionLike
	status.MessageID = "msg-2"
	require.NoError(t, SaveStatus(database.DB, status))

	var count int64
	require.NoError(t, database.DB.Model(&UserPuzzle{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := GetStatus(database.DB, "alice", 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ReactionLike, got.Reaction)
	assert.Equal(t, "msg-2", got.MessageID)
}

func TestFindStatusByMessageScopedToUser(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SaveStatus(database.DB, &UserPuzzle{
		UserID: "alice", PuzzleID: 1, Attempted: true, Reaction: ReactionNone,
		MessageID: "msg-1", AttemptedAt: time.Now(),
	}))

	got, err := FindStatusByMessage(database.DB, "alice", "msg-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(1), got.PuzzleID)

	// 别的用户看不到这条私信投递
	got, err = FindStatusByMessage(database.DB, "bob", "msg-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// 空消息ID直接按未命中处理
	got, err = FindStatusByMessage(database.DB, "alice", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSharedMessageMapping(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, RecordSharedMessage(database.DB, "shared-1", 7, "channel-1", "alice"))
	// 重复记录同一条消息是幂等的
	require.NoError(t, RecordSharedMessage(database.DB, "shared-1", 7, "channel-1", "alice"))

	got, err := FindSharedMessage(database.DB, "shared-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(7), got.PuzzleID)
	assert.Equal(t, "alice", got.PostedBy)

	got, err = FindSharedMessage(database.DB, "shared-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTallyForPuzzle(t *testing.T) {
	setupTestDB(t)
	now := time.Now()

	rows := []UserPuzzle{
		{UserID: "a", PuzzleID: 1, Attempted: true, Solved: true, Reaction: ReactionLike, AttemptedAt: now, SolvedAt: &now},
		{UserID: "b", PuzzleID: 1, Attempted: true, Reaction: ReactionDislike, AttemptedAt: now},
		{UserID: "c", PuzzleID: 1, Attempted: true, Reaction: ReactionNone, AttemptedAt: now},
		{UserID: "a", PuzzleID: 2, Attempted: true, Reaction: ReactionLike, AttemptedAt: now},
	}
	for i := range rows {
		require.NoError(t, SaveStatus(database.DB, &rows[i]))
	}

	tally, err := TallyForPuzzle(database.DB, 1)
	require.NoError(t, err)
	assert.Equal(t, PuzzleTally{Attempts: 3, Solves: 1, Likes: 1, Dislikes: 1}, tally)

	// 没有任何状态行的谜题
	tally, err = TallyForPuzzle(database.DB, 99)
	require.NoError(t, err)
	assert.Equal(t, PuzzleTally{}, tally)
}
