package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "github.com/danishayman/cpc357-project/pkg/config"
)

// Config feeder-hub（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database commoncfg.DatabaseConfig
	Redis    commoncfg.RedisConfig
	Log      struct {
		Level  string
		Format string
	}

	// MQTT 命令中继配置（尽力而为；禁用时设备只能轮询取命令）
	MQTT struct {
		Enabled     bool
		Broker      string
		ClientID    string
		Username    string
		Password    string
		TopicPrefix string // 命令主题前缀，完整主题为 {prefix}/{device_id}
		QoS         byte
	}

	// Mail 邮件服务配置（HTTP 事务邮件 API）
	Mail MailConfig

	// Alert 报警引擎配置
	Alert AlertConfig

	// Webhook 设备数据上报共享密钥
	WebhookSecret string

	// DefaultDeviceID 请求未携带 device_id 时的默认设备
	DefaultDeviceID string

	// StatsTimezone 统计聚合使用的本地时区（IANA 名称）
	StatsTimezone string
}

// AlertConfig 报警引擎配置
type AlertConfig struct {
	Stream        string        // 观测数据流名称
	ConsumerGroup string        // 消费者组
	ConsumerName  string        // 消费者名称
	BatchSize     int64         // 单次读取消息数
	Cooldown      time.Duration // 同一(用户,类型,设备)的重复报警冷却窗口，0 表示不限流
}

// MailConfig 邮件服务配置
type MailConfig struct {
	APIURL string // 邮件服务地址
	APIKey string // API Key，为空表示邮件服务未配置
	From   string // 发件人
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "feeder")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// MQTT 命令中继（默认禁用，设备轮询仍然可用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "feeder-hub")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_COMMAND_TOPIC", "feeder/commands")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	// 邮件服务
	cfg.Mail.APIURL = getEnv("MAIL_API_URL", "https://api.resend.com")
	cfg.Mail.APIKey = getEnv("MAIL_API_KEY", "")
	cfg.Mail.From = getEnv("MAIL_FROM", "Smart Feeder <alerts@resend.dev>")

	// 报警引擎
	cfg.Alert.Stream = getEnv("ALERT_STREAM", "feeder:observations")
	cfg.Alert.ConsumerGroup = getEnv("ALERT_CONSUMER_GROUP", "alert-engine")
	cfg.Alert.ConsumerName = getEnv("ALERT_CONSUMER_NAME", "feeder-hub-1")
	cfg.Alert.BatchSize = int64(parseInt(getEnv("ALERT_BATCH_SIZE", "10"), 10))
	cfg.Alert.Cooldown = time.Duration(parseInt(getEnv("ALERT_COOLDOWN_SECONDS", "900"), 900)) * time.Second

	cfg.WebhookSecret = getEnv("WEBHOOK_SECRET_TOKEN", "")
	cfg.DefaultDeviceID = getEnv("DEFAULT_DEVICE_ID", "esp32-feeder-01")
	cfg.StatsTimezone = getEnv("STATS_TIMEZONE", "Asia/Kuala_Lumpur")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
