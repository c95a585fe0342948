package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SlpAus/hive-puzzle-bot-backend/api"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/cooldown"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/health"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/shutdown"
	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/startup"
	"github.com/SlpAus/hive-puzzle-bot-backend/pkg/lifecycle"
	"github.com/SlpAus/hive-puzzle-bot-backend/pkg/token"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("无法加载配置: %v", err))
	}

	token.GenerateSecretKey()
	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)

	// 1. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 阻塞式执行一次启动后健康检查
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()

	// 4. 创建生命周期管理器并启动后台服务
	gracefulManager := lifecycle.NewManager()
	forcefulManager := lifecycle.NewManager()

	healthHandle, err := gracefulManager.NewServiceHandle("redis-health-checker")
	if err != nil {
		panic(err)
	}
	health.StartRedisHealthCheck(healthHandle)

	cooldown.Configure(cfg.Bot.CooldownWindow())
	janitorHandle, err := gracefulManager.NewServiceHandle("cooldown-janitor")
	if err != nil {
		panic(err)
	}
	cooldown.StartJanitor(janitorHandle)

	// 5. 组装Gin引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	if len(cfg.Server.Cors.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-User-ID", "X-Admin-Token"},
			ExposeHeaders:    []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("服务器启动失败: " + err.Error())
		}
	}()

	// 6. 阻塞等待停机信号
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager)
	coordinator.ListenForSignalsAndShutdown(server)
}
