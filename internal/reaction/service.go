package reaction

import (
	"time"

	"gorm.io/gorm"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/progress"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/puzzle"
)

// State 是转移函数眼中的用户谜题状态：只有解出标记和净反应两个维度。
type State struct {
	Solved   bool
	Reaction progress.Reaction
}

// Transition 是反应状态机的纯转移函数。
// 给定当前状态和一个(类别,方向)事件，返回新状态、全局计数器增量
// 以及状态是否发生了变化。它不做任何IO，所有幂等性保证都落在这里：
//   - 解出标记是粘性的，重复✅和撤销✅都是空操作
//   - like与dislike互斥，切换时旧计数减一新计数加一
//   - 撤销一个已被顶替的反应不再减计数
//   - 不认识的表情不改变任何东西
func Transition(state State, kind Kind, action Action) (State, puzzle.CounterDelta, bool) {
	var delta puzzle.CounterDelta

	switch kind {
	case KindSolve:
		if action == ActionAdd && !state.Solved {
			state.Solved = true
			delta.Solves = 1
			return state, delta, true
		}
		return state, delta, false

	case KindLike:
		if action == ActionAdd {
			switch state.Reaction {
			case progress.ReactionLike:
				return state, delta, false
			case progress.ReactionDislike:
				state.Reaction = progress.ReactionLike
				delta.Likes = 1
				delta.Dislikes = -1
				return state, delta, true
			default:
				state.Reaction = progress.ReactionLike
				delta.Likes = 1
				return state, delta, true
			}
		}
		// 只有当前净反应确实是like时，撤销才生效
		if state.Reaction == progress.ReactionLike {
			state.Reaction = progress.ReactionNone
			delta.Likes = -1
			return state, delta, true
		}
		return state, delta, false

	case KindDislike:
		if action == ActionAdd {
			switch state.Reaction {
			case progress.ReactionDislike:
				return state, delta, false
			case progress.ReactionLike:
				state.Reaction = progress.ReactionDislike
				delta.Likes = -1
				delta.Dislikes = 1
				return state, delta, true
			default:
				state.Reaction = progress.ReactionDislike
				delta.Dislikes = 1
				return state, delta, true
			}
		}
		if state.Reaction == progress.ReactionDislike {
			state.Reaction = progress.ReactionNone
			delta.Dislikes = -1
			return state, delta, true
		}
		return state, delta, false

	default:
		return state, delta, false
	}
}

// Result 描述一次反应事件的处理结果。
type Result struct {
	// Recognized 为false表示消息没有映射到任何谜题，事件被整体忽略
	Recognized bool
	// Applied 为true表示状态行确实发生了变化
	Applied  bool
	PuzzleID uint
}

// ResolvePuzzleID 把一条反应事件所在的消息反查回谜题：
// 先查该用户自己的私信投递记录，再查共享频道的消息映射。
// 两边都未命中时返回(0, false)。
func ResolvePuzzleID(db *gorm.DB, userID, messageID string) (uint, bool, error) {
	status, err := progress.FindStatusByMessage(db, userID, messageID)
	if err != nil {
		return 0, false, err
	}
	if status != nil {
		return status.PuzzleID, true, nil
	}

	shared, err := progress.FindSharedMessage(db, messageID)
	if err != nil {
		return 0, false, err
	}
	if shared != nil {
		return shared.PuzzleID, true, nil
	}
	return 0, false, nil
}

// ApplyReaction 处理一条通过消息ID定位谜题的反应事件。
func ApplyReaction(userID, messageID, emoji string, action Action) (*Result, error) {
	return apply(userID, messageID, 0, emoji, action)
}

// ApplyReactionToPuzzle 处理一条直接指明谜题ID的反应事件。
func ApplyReactionToPuzzle(userID string, puzzleID uint, emoji string, action Action) (*Result, error) {
	return apply(userID, "", puzzleID, emoji, action)
}

// apply 是反应事件的统一入口。
// 整个读-改-写在一个事务里完成，并对状态行加行锁，
// 保证同一(用户,谜题)对的并发事件串行生效、计数器增量恰好应用一次。
func apply(userID, messageID string, puzzleID uint, emoji string, action Action) (*Result, error) {
	result := &Result{}
	var updated *puzzle.Puzzle

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if puzzleID == 0 {
			resolved, found, err := ResolvePuzzleID(tx, userID, messageID)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}
			puzzleID = resolved
		} else {
			p, err := puzzle.GetPuzzleByID(tx, puzzleID)
			if err != nil {
				return err
			}
			if p == nil {
				return nil
			}
		}
		result.Recognized = true
		result.PuzzleID = puzzleID

		kind := KindForEmoji(emoji)
		now := time.Now()

		// 不认识的表情是彻底的空操作，不会把用户算作见过，
		// 只在流水里留一条Applied=false的记录
		if kind == KindIgnore {
			event := Event{
				UserID:    userID,
				PuzzleID:  puzzleID,
				MessageID: messageID,
				Emoji:     emoji,
				Action:    action,
				Applied:   false,
			}
			return tx.Create(&event).Error
		}

		status, err := progress.GetStatusForUpdate(tx, userID, puzzleID)
		if err != nil {
			return err
		}

		var delta puzzle.CounterDelta
		created := false
		if status == nil {
			// 对频道消息做出反应的用户可能从未被投递过这道谜题，
			// 任何被识别的反应事件都会把他算作见过
			status = &progress.UserPuzzle{
				UserID:      userID,
				PuzzleID:    puzzleID,
				Attempted:   true,
				Reaction:    progress.ReactionNone,
				AttemptedAt: now,
			}
			delta.Attempts = 1
			created = true
		}

		state := State{Solved: status.Solved, Reaction: status.Reaction}
		newState, transitionDelta, changed := Transition(state, kind, action)

		if changed {
			if newState.Solved && !status.Solved {
				status.SolvedAt = &now
			}
			status.Solved = newState.Solved
			status.Reaction = newState.Reaction
		}
		delta.Solves += transitionDelta.Solves
		delta.Likes += transitionDelta.Likes
		delta.Dislikes += transitionDelta.Dislikes

		if created || changed {
			if err := progress.SaveStatus(tx, status); err != nil {
				return err
			}
		}
		if err := puzzle.IncrementCounters(tx, puzzleID, delta); err != nil {
			return err
		}

		result.Applied = created || changed

		event := Event{
			UserID:    userID,
			PuzzleID:  puzzleID,
			MessageID: messageID,
			Emoji:     emoji,
			Action:    action,
			Applied:   result.Applied,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		if !delta.IsZero() {
			updated, err = puzzle.GetPuzzleByID(tx, puzzleID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated != nil {
		puzzle.UpdateStatsCache(updated)
	}
	return result, nil
}
