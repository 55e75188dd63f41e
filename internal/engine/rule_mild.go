package engine

import (
	"safeplan-engine/internal/models"
)

// MildRule 轻度模式：近7条均值 < 6 且近期趋势为 declining
type MildRule struct{}

// NewMildRule 创建轻度规则
func NewMildRule() *MildRule {
	return &MildRule{}
}

// Evaluate 评估轻度规则，未命中返回 nil
func (r *MildRule) Evaluate(recent []models.MoodEntry, timestampMillis int64) *models.CrisisAlert {
	averageMood := meanMood(recent)

	if averageMood >= 6 || len(recent) < 3 || calculateTrend(recent) != models.TrendDeclining {
		return nil
	}

	alert := newCrisisAlert(
		models.AlertLevelMild,
		[]string{"Declining mood trend detected"},
		[]string{
			"Practice self-care",
			"Review your reasons for living",
			"Consider scheduling time with supportive people",
		},
		timestampMillis,
	)
	return &alert
}
