package models

// AlertLevel 危机警报级别
type AlertLevel string

const (
	AlertLevelMild     AlertLevel = "mild"
	AlertLevelModerate AlertLevel = "moderate"
	AlertLevelSevere   AlertLevel = "severe"
)

// CrisisAlert 危机警报（由心情模式规则触发）
type CrisisAlert struct {
	AlertID            string     `json:"alert_id"`
	Level              AlertLevel `json:"level"`
	Triggers           []string   `json:"triggers"`            // 触发规则的可读描述
	RecommendedActions []string   `json:"recommended_actions"` // 建议的后续行动
	// EmergencyContactsNotified 当前版本不支持自动通知紧急联系人，恒为 false
	EmergencyContactsNotified bool  `json:"emergency_contacts_notified"`
	Timestamp                 int64 `json:"timestamp"` // 触发时间（毫秒）
}
