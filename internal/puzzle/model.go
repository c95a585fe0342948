package puzzle

import "time"

// Puzzle 定义了数据库中谜题的数据结构。
// 内容字段(UHP/Solution/Ply/Author)在导入后不可变，只能通过再次导入upsert覆盖；
// 四个全局计数器是从状态表派生出来的缓存列，只允许反应协调器、
// 投递流程和修复操作修改，用户侧永远不能直接改写。
type Puzzle struct {
	ID uint `gorm:"primarykey" json:"id"`

	// UHP 是谜题局面的编码字符串，同时充当导入时的自然键
	UHP string `gorm:"uniqueIndex;not null" json:"uhp"`

	// Solution 是谜题的解法着法序列
	Solution string `gorm:"not null" json:"solution"`

	// Ply 是解法的半回合数。旧数据可能缺失，所以允许为NULL
	Ply *int `gorm:"index" json:"ply"`

	// Author 是谜题作者
	Author string `gorm:"default:''" json:"author"`

	// --- 以下是派生的全局计数器 ---

	// Attempts 等于该谜题状态行的总数
	Attempts int `json:"attempts"`

	// Solves 等于solved=true的状态行数
	Solves int `json:"solves"`

	// Likes / Dislikes 等于当前净反应为like/dislike的状态行数
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// CounterDelta 描述一次事件对某个谜题全局计数器的增量。
// 它由纯转移函数计算，并在同一个事务中原子地应用。
type CounterDelta struct {
	Attempts int
	Solves   int
	Likes    int
	Dislikes int
}

// IsZero 判断增量是否为空操作。
func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}
