package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务全部配置；由 viper 从文件 + 环境变量加载
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // debug / release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// ChatConfig 聊天核心的限制与调优参数
type ChatConfig struct {
	// ConnectionLimit 每个用户可以保持的 ACCEPTED 连接上限。
	// 服务启动后视为常量（见 ConnectionService）。
	ConnectionLimit int `mapstructure:"connection_limit"`
	// ChannelHeadLimit 单个频道的人数上限
	ChannelHeadLimit int `mapstructure:"channel_head_limit"`
	// PresenceTTL 活跃频道记录的过期时间
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
	// FanoutWorkers / FanoutQueueSize 消息扇出工作池参数
	FanoutWorkers   int `mapstructure:"fanout_workers"`
	FanoutQueueSize int `mapstructure:"fanout_queue_size"`
	// WSMessageRate 每个连接允许的每秒入站消息数（突发 WSMessageBurst）
	WSMessageRate  float64 `mapstructure:"ws_message_rate"`
	WSMessageBurst int     `mapstructure:"ws_message_burst"`
}

// Load reads config.yaml from the working directory (or CONFIG_PATH) and
// overlays CHATLINK_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if p := v.GetString("CONFIG_PATH"); p != "" {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("CHATLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时允许走默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.dsn", "host=localhost user=chatlink password=chatlink dbname=chatlink port=5432 sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("chat.connection_limit", 1000)
	v.SetDefault("chat.channel_head_limit", 100)
	v.SetDefault("chat.presence_ttl", 300*time.Second)
	v.SetDefault("chat.fanout_workers", 10)
	v.SetDefault("chat.fanout_queue_size", 10000)
	v.SetDefault("chat.ws_message_rate", 20)
	v.SetDefault("chat.ws_message_burst", 40)
}
