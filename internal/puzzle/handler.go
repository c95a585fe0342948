package puzzle

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/cooldown"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/progress"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/user"
	"github.com/SlpAus/hive-puzzle-bot-backend/pkg/token"
)

// SharedPostActionKey 是共享频道发布路径在冷却闸门里的动作键
const SharedPostActionKey = "share_puzzle"

// --- API响应模型 ---

type UserStatusResponse struct {
	Attempted bool   `json:"attempted"`
	Solved    bool   `json:"solved"`
	Reaction  string `json:"reaction"`
}

type NextPuzzleResponse struct {
	ID         uint                `json:"id"`
	Link       string              `json:"link"`
	LinkAsFile bool                `json:"linkAsFile"`
	Ply        *int                `json:"ply"`
	Author     string              `json:"author"`
	Freshness  string              `json:"freshness"`
	Stats      PuzzleStatsResponse `json:"stats"`
	YourStatus UserStatusResponse  `json:"yourStatus"`
	DeliveryID string              `json:"deliveryId"`
	Signature  string              `json:"signature"`
}

type SolutionResponse struct {
	ID           uint   `json:"id"`
	Solution     string `json:"solution"`
	SolutionText string `json:"solutionText"`
	Link         string `json:"link"`
	LinkAsFile   bool   `json:"linkAsFile"`
}

type PuzzleStatsResponse struct {
	ID       uint `json:"id"`
	Attempts int  `json:"attempts"`
	Solves   int  `json:"solves"`
	Likes    int  `json:"likes"`
	Dislikes int  `json:"dislikes"`
}

// --- 请求模型 ---

type FinalizeDeliveryRequest struct {
	DeliveryID string `json:"deliveryId" binding:"required"`
	PuzzleID   uint   `json:"puzzleId" binding:"required"`
	MessageID  string `json:"messageId" binding:"required"`
	Signature  string `json:"signature" binding:"required"`
}

type FinalizeSharedRequest struct {
	PuzzleID  uint   `json:"puzzleId" binding:"required"`
	MessageID string `json:"messageId" binding:"required"`
	ChannelID string `json:"channelId"`
}

type ImportRequest struct {
	File        string `json:"file"`
	Author      string `json:"author"`
	OnlyIfEmpty bool   `json:"onlyIfEmpty"`
}

// parsePlyRange 从query参数中解析可选的ply筛选范围。
func parsePlyRange(c *gin.Context) (*int, *int, bool) {
	var minPly, maxPly *int
	if raw := c.Query("minPly"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, nil, false
		}
		minPly = &value
	}
	if raw := c.Query("maxPly"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, nil, false
		}
		maxPly = &value
	}
	return minPly, maxPly, true
}

// linkTooLong 判断链接是否超出单条消息的长度上限。
func linkTooLong(link string) bool {
	return len(link) > config.Cfg.Bot.LinkCharLimit
}

// buildUserStatus 读取该用户在这道谜题上的个人状态，没有状态行时给默认值。
func buildUserStatus(userID string, puzzleID uint) (UserStatusResponse, error) {
	status, err := progress.GetStatus(database.DB, userID, puzzleID)
	if err != nil {
		return UserStatusResponse{}, err
	}
	if status == nil {
		return UserStatusResponse{Reaction: string(progress.ReactionNone)}, nil
	}
	return UserStatusResponse{
		Attempted: status.Attempted,
		Solved:    status.Solved,
		Reaction:  string(status.Reaction),
	}, nil
}

// signDelivery 为一次待确认的投递生成ID和签名。
func signDelivery(userID string, puzzleID uint) (string, string, error) {
	deliveryID, err := uuid.NewV7()
	if err != nil {
		return "", "", err
	}
	signature, err := token.GenerateDeliverySignature(token.DeliveryPayload{
		DeliveryID: deliveryID.String(),
		UserID:     userID,
		PuzzleID:   puzzleID,
	})
	if err != nil {
		return "", "", err
	}
	return deliveryID.String(), signature, nil
}

// GetNextPuzzle 为用户选择下一道谜题并签发投递凭证。
// 此操作是纯读的：状态行要等投递确认(POST /deliveries)后才会创建。
func GetNextPuzzle(c *gin.Context) {
	userID := user.MustGetUserID(c)

	minPly, maxPly, ok := parsePlyRange(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ply参数格式不正确"})
		return
	}

	selected, err := SelectPuzzleForUser(database.DB, userID, minPly, maxPly)
	if err != nil {
		if errors.Is(err, ErrInvalidPlyRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ply范围不合法"})
			return
		}
		if errors.Is(err, ErrNoPuzzleAvailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": "当前范围内没有可用的谜题"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "选取谜题失败"})
		return
	}

	deliveryID, signature, err := signDelivery(userID, selected.Puzzle.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成投递凭证失败"})
		return
	}

	yourStatus, err := buildUserStatus(userID, selected.Puzzle.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户状态失败"})
		return
	}

	link := BuildPuzzleLink(selected.Puzzle)
	c.JSON(http.StatusOK, NextPuzzleResponse{
		ID:         selected.Puzzle.ID,
		Link:       link,
		LinkAsFile: linkTooLong(link),
		Ply:        selected.Puzzle.Ply,
		Author:     selected.Puzzle.Author,
		Freshness:  string(selected.Freshness),
		Stats: PuzzleStatsResponse{
			ID:       selected.Puzzle.ID,
			Attempts: selected.Puzzle.Attempts,
			Solves:   selected.Puzzle.Solves,
			Likes:    selected.Puzzle.Likes,
			Dislikes: selected.Puzzle.Dislikes,
		},
		YourStatus: yourStatus,
		DeliveryID: deliveryID,
		Signature:  signature,
	})
}

// FinalizeDelivery 在谜题消息送达用户后确认投递，创建状态行。
// 凭证签名保证回报的(用户,谜题)对就是本服务之前签发的那一对。
func FinalizeDelivery(c *gin.Context) {
	userID := user.MustGetUserID(c)

	var req FinalizeDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式不正确"})
		return
	}

	payload := token.DeliveryPayload{
		DeliveryID: req.DeliveryID,
		UserID:     userID,
		PuzzleID:   req.PuzzleID,
	}
	if !token.ValidateDeliverySignature(payload, req.Signature) {
		c.JSON(http.StatusForbidden, gin.H{"error": "投递凭证无效"})
		return
	}

	if err := ConfirmDelivery(userID, req.PuzzleID, req.MessageID); err != nil {
		if errors.Is(err, ErrPuzzleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "谜题不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "确认投递失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "投递已确认"})
}

// FinalizeSharedDelivery 确认一次共享频道发布，受冷却闸门保护。
// 冷却在发布真正落库之后才开始计时，校验失败不消耗冷却。
func FinalizeSharedDelivery(c *gin.Context) {
	userID := user.MustGetUserID(c)

	now := time.Now()
	if allowed, retryAfter := cooldown.Allow(userID, SharedPostActionKey, now); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      "分享谜题的冷却还没结束",
			"retryAfter": retryAfter.Seconds(),
		})
		return
	}

	var req FinalizeSharedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式不正确"})
		return
	}

	p, err := GetPuzzleByID(database.DB, req.PuzzleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取谜题失败"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "谜题不存在"})
		return
	}

	if err := progress.RecordSharedMessage(database.DB, req.MessageID, req.PuzzleID, req.ChannelID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "记录频道消息失败"})
		return
	}

	cooldown.Record(userID, SharedPostActionKey, now)
	c.JSON(http.StatusOK, gin.H{"message": "频道发布已记录"})
}

// GetPuzzleByIDHandler 按ID返回指定谜题，不含解法。
// 这是"指定谜题"流程：响应同样带投递凭证，网关把消息发出去后
// 走和/puzzles/next一样的投递确认。
func GetPuzzleByIDHandler(c *gin.Context) {
	userID := user.MustGetUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "谜题ID格式不正确"})
		return
	}

	p, err := GetPuzzleByID(database.DB, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取谜题失败"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "谜题不存在"})
		return
	}

	deliveryID, signature, err := signDelivery(userID, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成投递凭证失败"})
		return
	}

	yourStatus, err := buildUserStatus(userID, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户状态失败"})
		return
	}

	link := BuildPuzzleLink(p)
	c.JSON(http.StatusOK, NextPuzzleResponse{
		ID:         p.ID,
		Link:       link,
		LinkAsFile: linkTooLong(link),
		Ply:        p.Ply,
		Author:     p.Author,
		Stats: PuzzleStatsResponse{
			ID:       p.ID,
			Attempts: p.Attempts,
			Solves:   p.Solves,
			Likes:    p.Likes,
			Dislikes: p.Dislikes,
		},
		YourStatus: yourStatus,
		DeliveryID: deliveryID,
		Signature:  signature,
	})
}

// GetSolution 返回谜题的解法链接和可读文本。
// 解法文本带剧透格式，反斜杠需要转义一次以免被聊天平台的markdown吞掉。
func GetSolution(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "谜题ID格式不正确"})
		return
	}

	p, err := GetPuzzleByID(database.DB, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取谜题失败"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "谜题不存在"})
		return
	}

	link := BuildSolutionLink(p)
	display := ";" + strings.ReplaceAll(p.Solution, `\`, `\\`)
	c.JSON(http.StatusOK, SolutionResponse{
		ID:           p.ID,
		Solution:     p.Solution,
		SolutionText: "||" + display + "||",
		Link:         link,
		LinkAsFile:   linkTooLong(link),
	})
}

// GetPuzzleStats 返回单个谜题的计数器，优先走Redis镜像。
func GetPuzzleStats(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "谜题ID格式不正确"})
		return
	}

	if database.IsRedisHealthy() {
		stats, err := GetCachedStats(uint(id))
		if err == nil && stats != nil {
			c.JSON(http.StatusOK, PuzzleStatsResponse{
				ID:       uint(id),
				Attempts: stats.Attempts,
				Solves:   stats.Solves,
				Likes:    stats.Likes,
				Dislikes: stats.Dislikes,
			})
			return
		}
	}

	// Redis不可用或未命中时回源SQLite
	p, err := GetPuzzleByID(database.DB, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取谜题失败"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "谜题不存在"})
		return
	}
	c.JSON(http.StatusOK, PuzzleStatsResponse{
		ID:       p.ID,
		Attempts: p.Attempts,
		Solves:   p.Solves,
		Likes:    p.Likes,
		Dislikes: p.Dislikes,
	})
}

// GetRankingHandler 返回按净好评数排序的谜题排行榜。
// 排行榜只由Redis提供，Redis不健康时直接返回503等待重建。
func GetRankingHandler(c *gin.Context) {
	if !database.IsRedisHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "排行榜暂时不可用"})
		return
	}

	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 || value > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数不合法"})
			return
		}
		limit = value
	}

	entries, err := GetRanking(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取排行榜失败"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ImportPuzzlesHandler 管理接口：从服务器上的谜题文件导入。
func ImportPuzzlesHandler(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式不正确"})
		return
	}

	file := req.File
	if file == "" {
		file = config.Cfg.Bot.PuzzleFile
	}
	author := req.Author
	if author == "" {
		author = config.Cfg.Bot.DefaultAuthor
	}
	mode := ImportUpsert
	if req.OnlyIfEmpty {
		mode = ImportOnlyIfEmpty
	}

	added, err := ImportPuzzles(database.DB, file, author, mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 导入会改动计数器以外的内容字段，整体重建一次镜像最稳妥
	if database.IsRedisHealthy() {
		if err := WarmupCache(); err != nil {
			c.JSON(http.StatusOK, gin.H{"imported": added, "warning": "Redis镜像重建失败"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"imported": added})
}

// DeletePuzzleHandler 管理接口：删除谜题并级联清理其全部状态。
func DeletePuzzleHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "谜题ID格式不正确"})
		return
	}

	removed, err := DeletePuzzleCascade(uint(id))
	if err != nil {
		if errors.Is(err, ErrPuzzleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "谜题不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除谜题失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removedStatuses": removed})
}
