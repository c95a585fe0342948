package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/user"
)

// GetMyStats 返回当前用户的进度汇总。
func GetMyStats(c *gin.Context) {
	userID := user.MustGetUserID(c)

	stats, err := GetPersonalStats(database.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户统计失败"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RepairCounters 管理接口：以状态表为准重算全部派生计数器。
func RepairCounters(c *gin.Context) {
	report, err := RebuildPuzzleCounters()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
