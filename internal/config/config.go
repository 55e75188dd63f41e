package config

import (
	"fmt"
	"os"
)

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（通知桥接）
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	TopicPrefix string // 主题前缀，如 "safeplan/user/"
}

// PushConfig 推送网关配置（HTTP 即时推送）
type PushConfig struct {
	GatewayURL string
	Token      string // 设备推送令牌，为空视为未授权
}

// Config 安全计划引擎配置
type Config struct {
	Redis RedisConfig
	MQTT  MQTTConfig
	Push  PushConfig

	// 存储键配置
	Cache struct {
		KeyPrefix       string // 键前缀，如 "safety-plan:user:"
		MoodSuffix      string // 心情记录键后缀
		AlertSuffix     string // 危机警报键后缀
		PrefsSuffix     string // 通知偏好键后缀
		HistorySuffix   string // 通知历史键后缀
		AnalyticsSuffix string // 通知统计键后缀
	}

	// 通知配置
	Notify struct {
		Transport            string // "mqtt" 或 "push"
		SchedulerTickSeconds int    // 本地定时器检查间隔（秒）
		SafetyPlanReviewTime string // 安全计划回顾的固定时刻 "HH:MM"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "safeplan-engine")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "safeplan/user/")

	cfg.Push.GatewayURL = getEnv("PUSH_GATEWAY_URL", "https://exp.host/--/api/v2/push")
	cfg.Push.Token = getEnv("PUSH_TOKEN", "")

	cfg.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", "safety-plan:user:")
	cfg.Cache.MoodSuffix = ":mood_entries"
	cfg.Cache.AlertSuffix = ":crisis_alerts"
	cfg.Cache.PrefsSuffix = ":notification_prefs"
	cfg.Cache.HistorySuffix = ":notification_history"
	cfg.Cache.AnalyticsSuffix = ":notification_analytics"

	cfg.Notify.Transport = getEnv("NOTIFY_TRANSPORT", "mqtt")
	cfg.Notify.SchedulerTickSeconds = 30
	cfg.Notify.SafetyPlanReviewTime = getEnv("SAFETY_PLAN_REVIEW_TIME", "10:00")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Notify.Transport != "mqtt" && cfg.Notify.Transport != "push" {
		return nil, fmt.Errorf("invalid NOTIFY_TRANSPORT: %s", cfg.Notify.Transport)
	}

	return cfg, nil
}

// MoodEntriesKey 构建心情记录存储键
func (c *Config) MoodEntriesKey(userID string) string {
	return c.Cache.KeyPrefix + userID + c.Cache.MoodSuffix
}

// CrisisAlertsKey 构建危机警报存储键
func (c *Config) CrisisAlertsKey(userID string) string {
	return c.Cache.KeyPrefix + userID + c.Cache.AlertSuffix
}

// PreferencesKey 构建通知偏好存储键
func (c *Config) PreferencesKey(userID string) string {
	return c.Cache.KeyPrefix + userID + c.Cache.PrefsSuffix
}

// HistoryKey 构建通知历史存储键
func (c *Config) HistoryKey(userID string) string {
	return c.Cache.KeyPrefix + userID + c.Cache.HistorySuffix
}

// AnalyticsKey 构建通知统计存储键
func (c *Config) AnalyticsKey(userID string) string {
	return c.Cache.KeyPrefix + userID + c.Cache.AnalyticsSuffix
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
