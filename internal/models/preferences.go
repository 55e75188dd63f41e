package models

// ReviewFrequency 安全计划回顾频率
type ReviewFrequency string

const (
	ReviewWeekly  ReviewFrequency = "weekly"
	ReviewMonthly ReviewFrequency = "monthly"
)

// DailyCheckInPrefs 每日签到提醒配置
type DailyCheckInPrefs struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"` // "HH:MM"
}

// MoodReminderPrefs 心情记录提醒配置
type MoodReminderPrefs struct {
	Enabled   bool     `json:"enabled"`
	Frequency string   `json:"frequency"`
	Times     []string `json:"times"` // "HH:MM" 列表（UI 最多4个）
}

// CrisisSupportPrefs 危机支持通知配置
type CrisisSupportPrefs struct {
	Enabled            bool `json:"enabled"`
	ProactiveReminders bool `json:"proactive_reminders"`
}

// SafetyPlanReminderPrefs 安全计划回顾提醒配置
type SafetyPlanReminderPrefs struct {
	Enabled         bool            `json:"enabled"`
	ReviewFrequency ReviewFrequency `json:"review_frequency"`
}

// EncouragementPrefs 鼓励消息配置
type EncouragementPrefs struct {
	Enabled   bool   `json:"enabled"`
	Frequency string `json:"frequency"`
}

// NotificationPreferences 通知偏好（每用户单例）
type NotificationPreferences struct {
	Enabled               bool                    `json:"enabled"` // 总开关
	DailyCheckIn          DailyCheckInPrefs       `json:"daily_check_in"`
	MoodReminders         MoodReminderPrefs       `json:"mood_reminders"`
	CrisisSupport         CrisisSupportPrefs      `json:"crisis_support"`
	SafetyPlanReminders   SafetyPlanReminderPrefs `json:"safety_plan_reminders"`
	EncouragementMessages EncouragementPrefs      `json:"encouragement_messages"`
}

// DefaultPreferences 默认通知偏好
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		Enabled: true,
		DailyCheckIn: DailyCheckInPrefs{
			Enabled: true,
			Time:    "20:00",
		},
		MoodReminders: MoodReminderPrefs{
			Enabled:   false,
			Frequency: "daily",
			Times:     []string{"12:00"},
		},
		CrisisSupport: CrisisSupportPrefs{
			Enabled:            true,
			ProactiveReminders: true,
		},
		SafetyPlanReminders: SafetyPlanReminderPrefs{
			Enabled:         true,
			ReviewFrequency: ReviewWeekly,
		},
		EncouragementMessages: EncouragementPrefs{
			Enabled:   true,
			Frequency: "sometimes",
		},
	}
}

// PreferencesPatch 偏好的部分更新（nil 字段表示不修改，子配置整段替换）
type PreferencesPatch struct {
	Enabled               *bool                    `json:"enabled,omitempty"`
	DailyCheckIn          *DailyCheckInPrefs       `json:"daily_check_in,omitempty"`
	MoodReminders         *MoodReminderPrefs       `json:"mood_reminders,omitempty"`
	CrisisSupport         *CrisisSupportPrefs      `json:"crisis_support,omitempty"`
	SafetyPlanReminders   *SafetyPlanReminderPrefs `json:"safety_plan_reminders,omitempty"`
	EncouragementMessages *EncouragementPrefs      `json:"encouragement_messages,omitempty"`
}

// Apply 将部分更新合并到偏好（与移动端的对象展开合并语义一致）
func (p *NotificationPreferences) Apply(patch PreferencesPatch) {
	if patch.Enabled != nil {
		p.Enabled = *patch.Enabled
	}
	if patch.DailyCheckIn != nil {
		p.DailyCheckIn = *patch.DailyCheckIn
	}
	if patch.MoodReminders != nil {
		p.MoodReminders = *patch.MoodReminders
	}
	if patch.CrisisSupport != nil {
		p.CrisisSupport = *patch.CrisisSupport
	}
	if patch.SafetyPlanReminders != nil {
		p.SafetyPlanReminders = *patch.SafetyPlanReminders
	}
	if patch.EncouragementMessages != nil {
		p.EncouragementMessages = *patch.EncouragementMessages
	}
}
