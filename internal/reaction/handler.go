package reaction

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/user"
)

type ReactionRequest struct {
	// MessageID和PuzzleID二选一，同时给出时以PuzzleID为准
	MessageID string `json:"messageId"`
	PuzzleID  uint   `json:"puzzleId"`
	Emoji     string `json:"emoji" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// HandleReaction 接收网关转发的反应事件并交给状态机处理。
// 无法识别的消息或表情都按成功的空操作应答，让网关不必重试。
func HandleReaction(c *gin.Context) {
	userID := user.MustGetUserID(c)

	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式不正确"})
		return
	}
	if req.MessageID == "" && req.PuzzleID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "必须提供messageId或puzzleId"})
		return
	}

	var action Action
	switch req.Action {
	case string(ActionAdd):
		action = ActionAdd
	case string(ActionRemove):
		action = ActionRemove
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action必须是add或remove"})
		return
	}

	var result *Result
	var err error
	if req.PuzzleID != 0 {
		result, err = ApplyReactionToPuzzle(userID, req.PuzzleID, req.Emoji, action)
	} else {
		result, err = ApplyReaction(userID, req.MessageID, req.Emoji, action)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理反应事件失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recognized": result.Recognized,
		"applied":    result.Applied,
		"puzzleId":   result.PuzzleID,
	})
}
