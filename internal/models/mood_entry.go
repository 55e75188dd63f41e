package models

// MoodEntry 心情记录（每天一条，软约束）
type MoodEntry struct {
	EntryID              string   `json:"entry_id"`
	Date                 string   `json:"date"` // "YYYY-MM-DD"，用于"今日记录"查找
	Mood                 int      `json:"mood"` // 1-10（1=极低，10=极好），引擎不做边界校验
	Notes                string   `json:"notes,omitempty"`
	WarningSignsPresent  []string `json:"warning_signs_present"`
	CopingStrategiesUsed []string `json:"coping_strategies_used"`
	Timestamp            int64    `json:"timestamp"` // 创建时间（毫秒），用于最近度计算
	PhotoURI             string   `json:"photo_uri,omitempty"`
}

// Trend 心情趋势（三态）
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// RiskLevel 风险等级（三态）
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// MoodTrendSummary 心情趋势汇总（由最近14条记录推导）
type MoodTrendSummary struct {
	AverageMood     float64   `json:"average_mood"`
	Trend           Trend     `json:"trend"`
	RiskLevel       RiskLevel `json:"risk_level"`
	PatternInsights []string  `json:"pattern_insights"`
}
