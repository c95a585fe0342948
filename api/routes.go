package api

import (
	"github.com/gin-gonic/gin"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/puzzle"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/reaction"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/stats"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/user"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 谜题相关的路由组 /api/puzzles
		puzzleRoutes := api.Group("/puzzles")
		{
			puzzleRoutes.GET("/next", user.RequireUserMiddleware(), puzzle.GetNextPuzzle)
			puzzleRoutes.GET("/ranking", puzzle.GetRankingHandler)
			puzzleRoutes.GET("/:id", user.RequireUserMiddleware(), puzzle.GetPuzzleByIDHandler)
			puzzleRoutes.GET("/:id/solution", puzzle.GetSolution)
			puzzleRoutes.GET("/:id/stats", puzzle.GetPuzzleStats)
		}

		// 投递确认相关的路由 /api/deliveries
		deliveryRoutes := api.Group("/deliveries", user.RequireUserMiddleware())
		{
			deliveryRoutes.POST("", puzzle.FinalizeDelivery)
			deliveryRoutes.POST("/shared", puzzle.FinalizeSharedDelivery)
		}

		// 反应事件入口 /api/reactions
		api.POST("/reactions", user.RequireUserMiddleware(), reaction.HandleReaction)

		// 用户统计 /api/users/me/stats
		api.GET("/users/me/stats", user.RequireUserMiddleware(), stats.GetMyStats)

		// 管理接口 /api/admin
		adminRoutes := api.Group("/admin", user.RequireAdminMiddleware())
		{
			adminRoutes.POST("/import", puzzle.ImportPuzzlesHandler)
			adminRoutes.DELETE("/puzzles/:id", puzzle.DeletePuzzleHandler)
			adminRoutes.POST("/repair", stats.RepairCounters)
		}
	}
}
