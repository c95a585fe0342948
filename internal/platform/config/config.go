package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Bot      BotConfig      `mapstructure:"bot"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Redis  RedisConfig  `mapstructure:"redis"`
	Sqlite SqliteConfig `mapstructure:"sqlite"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// BotConfig 定义了谜题机器人业务相关的配置
type BotConfig struct {
	// BaseURL 是谜题查看器的地址，uhp会以query参数的形式拼接在后面
	BaseURL string `mapstructure:"baseUrl"`
	// PuzzleFile 是启动时用于初始导入的谜题CSV文件
	PuzzleFile string `mapstructure:"puzzleFile"`
	// DefaultAuthor 是导入谜题时的默认作者名
	DefaultAuthor string `mapstructure:"defaultAuthor"`
	// CooldownSeconds 是共享频道发布路径的冷却窗口（秒）
	CooldownSeconds int `mapstructure:"cooldownSeconds"`
	// LinkCharLimit 是聊天平台单条消息的长度上限，超过时由展示层改为附件发送
	LinkCharLimit int `mapstructure:"linkCharLimit"`
	// AdminToken 是管理接口的访问令牌，为空时禁用所有管理接口
	AdminToken string `mapstructure:"adminToken"`
}

// CooldownWindow 返回冷却窗口的时长，未配置时为60秒。
func (b BotConfig) CooldownWindow() time.Duration {
	if b.CooldownSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(b.CooldownSeconds) * time.Second
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:9000
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 填入默认值，保证裸机也能跑起来
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.sqlite.path", "puzzle_bot.db")
	v.SetDefault("bot.baseUrl", "http://127.0.0.1:3000/analysis")
	v.SetDefault("bot.puzzleFile", "MzingaTrainer_0.13.0_Puzzles.csv")
	v.SetDefault("bot.defaultAuthor", "Mzinga")
	v.SetDefault("bot.cooldownSeconds", 60)
	v.SetDefault("bot.linkCharLimit", 2000)

	// 5. 读取配置文件；文件不存在时退回默认值
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}
