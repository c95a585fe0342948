package reaction

import "time"

// 机器人识别的三个反应表情
const (
	SolveEmoji   = "✅"
	LikeEmoji    = "👍"
	DislikeEmoji = "👎"
)

// Action 表示平台上报的反应事件方向。
type Action string

const (
	// ActionAdd 表示用户添加了一个反应
	ActionAdd Action = "add"
	// ActionRemove 表示用户移除了一个反应
	ActionRemove Action = "remove"
)

// Kind 表示反应表情对应的语义类别。
type Kind string

const (
	// KindSolve 对应✅
	KindSolve Kind = "solve"
	// KindLike 对应👍
	KindLike Kind = "like"
	// KindDislike 对应👎
	KindDislike Kind = "dislike"
	// KindIgnore 表示不认识的表情，整个事件按空操作处理
	KindIgnore Kind = "ignore"
)

// KindForEmoji 把表情映射为语义类别。
func KindForEmoji(emoji string) Kind {
	switch emoji {
	case SolveEmoji:
		return KindSolve
	case LikeEmoji:
		return KindLike
	case DislikeEmoji:
		return KindDislike
	default:
		return KindIgnore
	}
}

// Event 是反应事件的流水记录，只追加不修改，
// 用于排查状态机问题和在必要时重放核对计数器。
type Event struct {
	ID        uint   `gorm:"primarykey"`
	UserID    string `gorm:"index;type:varchar(64);not null"`
	PuzzleID  uint   `gorm:"index;not null"`
	MessageID string `gorm:"type:varchar(64)"`
	Emoji     string `gorm:"type:varchar(8);not null"`
	Action    Action `gorm:"type:varchar(8);not null"`
	// Applied 标记该事件是否真的改变了状态行（空操作事件也会留痕）
	Applied   bool
	CreatedAt time.Time
}

// TableName 指定Event的表名，避免和其他模块的事件流水混在一起。
func (Event) TableName() string {
	return "reaction_events"
}
