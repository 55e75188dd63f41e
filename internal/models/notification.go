package models

// NotificationType 通知类型
type NotificationType string

const (
	NotificationDailyCheckIn     NotificationType = "daily-checkin"
	NotificationMoodReminder     NotificationType = "mood-reminder"
	NotificationCrisisSupport    NotificationType = "crisis-support"
	NotificationSafetyPlanReview NotificationType = "safety-plan-review"
	NotificationEncouragement    NotificationType = "encouragement"
	NotificationPatternAlert     NotificationType = "pattern-alert"
)

// NotificationPriority 通知优先级
type NotificationPriority string

const (
	PriorityLow      NotificationPriority = "low"
	PriorityNormal   NotificationPriority = "normal"
	PriorityHigh     NotificationPriority = "high"
	PriorityCritical NotificationPriority = "critical"
)

// PermissionStatus 通知权限状态
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// SmartNotification 智能通知（即时触发或定时触发）
type SmartNotification struct {
	NotificationID string               `json:"notification_id"`
	Type           NotificationType     `json:"type"`
	Title          string               `json:"title"`
	Body           string               `json:"body"`
	Priority       NotificationPriority `json:"priority"`
	Data           map[string]any       `json:"data,omitempty"` // 深链接上下文（不透明）
	Sent           bool                 `json:"sent"`
	Timestamp      int64                `json:"timestamp"` // 创建时间（毫秒）
}

// TypeStats 按通知类型的发送/打开计数
type TypeStats struct {
	Sent   int `json:"sent"`
	Opened int `json:"opened"`
}

// NotificationAnalytics 通知统计（增量累加，不从历史重算）
type NotificationAnalytics struct {
	TotalSent     int                            `json:"total_sent"`
	TotalOpened   int                            `json:"total_opened"`
	OpenRate      float64                        `json:"open_rate"` // totalOpened/totalSent*100，仅在打开事件时重算
	TypeBreakdown map[NotificationType]TypeStats `json:"type_breakdown"`
}

// NewNotificationAnalytics 创建空统计
func NewNotificationAnalytics() NotificationAnalytics {
	return NotificationAnalytics{
		TypeBreakdown: make(map[NotificationType]TypeStats),
	}
}
