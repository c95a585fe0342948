package reaction

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/progress"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/puzzle"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	config.Cfg = &config.Config{}
	database.InitDB(config.SqliteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, database.DB.AutoMigrate(&puzzle.Puzzle{}, &progress.UserPuzzle{}, &progress.SharedMessage{}, &Event{}))
}

func createTestPuzzle(t *testing.T) *puzzle.Puzzle {
	t.Helper()
	ply := 3
	p := &puzzle.Puzzle{UHP: "Base;WhiteWins;wS1;bG1 -wS1", Solution: "wA1 /bG1", Ply: &ply, Author: "Mzinga"}
	require.NoError(t, database.DB.Create(p).Error)
	return p
}

func deliverTestPuzzle(t *testing.T, userID string, puzzleID uint, messageID string) {
	t.Helper()
	require.NoError(t, puzzle.ConfirmDelivery(userID, puzzleID, messageID))
}

func reloadPuzzle(t *testing.T, id uint) *puzzle.Puzzle {
	t.Helper()
	p, err := puzzle.GetPuzzleByID(database.DB, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestTransitionSolveIsSticky(t *testing.T) {
	state := State{}

	state, delta, changed := Transition(state, KindSolve, ActionAdd)
	assert.True(t, changed)
	assert.True(t, state.Solved)
	assert.Equal(t, 1, delta.Solves)

	// 重复✅是空操作
	state, delta, changed = Transition(state, KindSolve, ActionAdd)
	assert.False(t, changed)
	assert.True(t, delta.IsZero())

	// 撤销✅也不会清掉解出标记
	state, delta, changed = Transition(state, KindSolve, ActionRemove)
	assert.False(t, changed)
	assert.True(t, state.Solved)
	assert.True(t, delta.IsZero())
}

func TestTransitionLikeDislikeMutuallyExclusive(t *testing.T) {
	state := State{Reaction: progress.ReactionNone}

	state, delta, changed := Transition(state, KindLike, ActionAdd)
	assert.True(t, changed)
	assert.Equal(t, progress.ReactionLike, state.Reaction)
	assert.Equal(t, puzzle.CounterDelta{Likes: 1}, delta)

	// 点踩会顶替点赞，两个计数一增一减
	state, delta, changed = Transition(state, KindDislike, ActionAdd)
	assert.True(t, changed)
	assert.Equal(t, progress.ReactionDislike, state.Reaction)
	assert.Equal(t, puzzle.CounterDelta{Likes: -1, Dislikes: 1}, delta)

	// 此时撤销早已被顶替的👍不应再减计数
	state, delta, changed = Transition(state, KindLike, ActionRemove)
	assert.False(t, changed)
	assert.Equal(t, progress.ReactionDislike, state.Reaction)
	assert.True(t, delta.IsZero())

	// 撤销当前的👎才会清掉净反应
	state, delta, changed = Transition(state, KindDislike, ActionRemove)
	assert.True(t, changed)
	assert.Equal(t, progress.ReactionNone, state.Reaction)
	assert.Equal(t, puzzle.CounterDelta{Dislikes: -1}, delta)
}

func TestTransitionIgnoresUnknownEmoji(t *testing.T) {
	state := State{Solved: true, Reaction: progress.ReactionLike}

	next, delta, changed := Transition(state, KindForEmoji("🎉"), ActionAdd)
	assert.False(t, changed)
	assert.Equal(t, state, next)
	assert.True(t, delta.IsZero())
}

func TestApplyReactionSolveIdempotent(t *testing.T) {
	setupTestDB(t)
	p := createTestPuzzle(t)
	deliverTestPuzzle(t, "alice", p.ID, "msg-1")

	for i := 0; i < 3; i++ {
		result, err := ApplyReaction("alice", "msg-1", SolveEmoji, ActionAdd)
		require.NoError(t, err)
		assert.True(t, result.Recognized)
	}

	got := reloadPuzzle(t, p.ID)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, 1, got.Solves)

	status, err := progress.GetStatus(database.DB, "alice", p.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.Solved)
	require.NotNil(t, status.SolvedAt)
}

func TestApplyReactionSolveRemoveKeepsSolved(t *testing.T) {
	setupTestDB(t)
	p := createTestPuzzle(t)
	deliverTestPuzzle(t, "alice", p.ID, "msg-1")

	_, err := ApplyReaction("alice", "msg-1", SolveEmoji, ActionAdd)
	require.NoError(t, err)

	result, err := ApplyReaction("alice", "msg-1", SolveEmoji, ActionRemove)
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.False(t, result.Applied)

	got := reloadPuzzle(t, p.ID)
	assert.Equal(t, 1, got.Solves)

	status, err := progress.GetStatus(database.DB, "alice", p.ID)
	require.NoError(t, err)
	assert.True(t, status.Solved)
}

func TestApplyReactionLikeThenDislike(t *testing.T) {
	setupTestDB(t)
	p := createTestPuzzle(t)
	deliverTestPuzzle(t, "alice", p.ID, "msg-1")

	_, err := ApplyReaction("alice", "msg-1", LikeEmoji, ActionAdd)
	require.NoError(t, err)

	got := reloadPuzzle(t, p.ID)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 0, got.Dislikes)

	_, err = ApplyReaction("alice", "msg-1", DislikeEmoji, ActionAdd)
	require.NoError(t, err)

	got = reloadPuzzle(t, p.ID)
	assert.Equal(t, 0, got.Likes)
	assert.Equal(t, 1, got.Dislikes)

	// 平台随后上报被顶替的👍被移除，计数不应再变
	_, err = ApplyReaction("alice", "msg-1", LikeEmoji, ActionRemove)
	require.NoError(t, err)

	got = reloadPuzzle(t, p.ID)
	assert.Equal(t, 0, got.Likes)
	assert.Equal(t, 1, got.Dislikes)

	status, err := progress.GetStatus(database.DB, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.ReactionDislike, status.Reaction)
}

func TestApplyReactionCreatesStatusRowForSharedMessage(t *testing.T) {
	setupTestDB(t)
	p := createTestPuzzle(t)

	// bob从未被投递过这道谜题，他对频道消息做出反应
	require.NoError(t, progress.RecordSharedMessage(database.DB, "shared-1", p.ID, "channel-1", "alice"))

	result, err := ApplyReaction("bob", "shared-1", LikeEmoji, ActionAdd)
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.True(t, result.Applied)

	got := reloadPuzzle(t, p.ID)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, 1, got.Likes)

	status, err := progress.GetStatus(database.DB, "bob", p.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.Attempted)
	assert.False(t, status.Solved)
}

func TestApplyReactionUnknownMessageIsNoOp(t *testing.T) {
	setupTestDB(t)
	createTestPuzzle(t)

	result, err := ApplyReaction("alice", "msg-unknown", SolveEmoji, ActionAdd)
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.False(t, result.Applied)

	var count int64
	require.NoError(t, database.DB.Model(&progress.UserPuzzle{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApplyReactionToPuzzleDirect(t *testing.T) {
	setupTestDB(t)
	p := createTestPuzzle(t)

	result, err := ApplyReactionToPuzzle("alice", p.ID, SolveEmoji, ActionAdd)
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.True(t, result.Applied)

	got := reloadPuzzle(t, p.ID)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, 1, got.Solves)

	// 不存在的谜题ID按未识别处理
	result, err = ApplyReactionToPuzzle("alice", p.ID+100, SolveEmoji, ActionAdd)
	require.NoError(t, err)
	assert.False(t, result.Recognized)
}

func TestApplyReactionUnknownEmojiStillRecordsEvent(t *testing.T) {
	setupTestDB(t)
	p := createTestPuzzle(t)
	deliverTestPuzzle(t, "alice", p.ID, "msg-1")

	result, err := ApplyReaction("alice", "msg-1", "🎉", ActionAdd)
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.False(t, result.Applied)

	got := reloadPuzzle(t, p.ID)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, 0, got.Likes)

	var events int64
	require.NoError(t, database.DB.Model(&Event{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestApplyReactionUnknownEmojiDoesNotCreateStatusRow(t *testing.T) {
	setupTestDB(t)
	p := createTestPuzzle(t)

	// bob没有状态行，对频道消息用一个不认识的表情做出反应
	require.NoError(t, progress.RecordSharedMessage(database.DB, "shared-1", p.ID, "channel-1", "alice"))

	result, err := ApplyReaction("bob", "shared-1", "🎉", ActionAdd)
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.False(t, result.Applied)

	// 不认识的表情不能把bob算作见过，计数器保持不变
	got := reloadPuzzle(t, p.ID)
	assert.Equal(t, 0, got.Attempts)

	status, err := progress.GetStatus(database.DB, "bob", p.ID)
	require.NoError(t, err)
	assert.Nil(t, status)

	// 流水里仍留一条未生效的记录
	var event Event
	require.NoError(t, database.DB.First(&event).Error)
	assert.Equal(t, "bob", event.UserID)
	assert.False(t, event.Applied)
}
