package progress

import (
	"time"
)

// Reaction 定义了用户对单个谜题的净反应状态的枚举类型
type Reaction string

const (
	// ReactionNone 表示用户当前没有有效的点赞/点踩
	ReactionNone Reaction = "none"
	// ReactionLike 表示用户当前点赞
	ReactionLike Reaction = "like"
	// ReactionDislike 表示用户当前点踩
	ReactionDislike Reaction = "dislike"
)

// UserPuzzle 定义了每个(用户,谜题)对的状态行。
// 复合主键保证同一对用户和谜题只有一行；行一旦创建不会被常规流程删除，
// 只在谜题被管理员删除时级联清理。
type UserPuzzle struct {
	// UserID 是聊天平台侧的用户ID
	UserID string `gorm:"primaryKey;type:varchar(64)"`

	// PuzzleID 引用puzzles表的主键
	PuzzleID uint `gorm:"primaryKey"`

	// Attempted 标记该用户是否见过这道谜题（投递或任意反应都会置true）
	Attempted bool

	// Solved 标记该用户是否解出过这道谜题。该字段是粘性的：
	// 一旦为true，撤销✅反应也不会把它重置回false。
	Solved bool

	// Reaction 是用户当前的净反应，like与dislike互斥
	Reaction Reaction `gorm:"type:varchar(8);not null;default:none"`

	// MessageID 是最近一次向该用户展示这道谜题的私信消息ID，
	// 用于把平台的反应事件反查回谜题
	MessageID string `gorm:"index:idx_user_message"`

	// AttemptedAt / SolvedAt 记录状态首次发生的时间
	AttemptedAt time.Time
	SolvedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SharedMessage 定义了共享频道里发布的谜题消息与谜题的全局映射。
// 私信投递记录在UserPuzzle.MessageID上，频道发布则落在这张表里，
// 任何用户对频道消息的反应都通过它反查谜题。
type SharedMessage struct {
	// MessageID 是频道消息的ID，全局唯一
	MessageID string `gorm:"primaryKey;type:varchar(64)"`

	// PuzzleID 引用puzzles表的主键
	PuzzleID uint `gorm:"index;not null"`

	// ChannelID 是消息所在频道
	ChannelID string

	// PostedBy 是触发这次发布的用户
	PostedBy string

	CreatedAt time.Time
}
