package engine

import (
	"safeplan-engine/internal/models"
)

// ModerateRule 中度模式：最新心情 <= 5 且最新记录带有预警信号
type ModerateRule struct{}

// NewModerateRule 创建中度规则
func NewModerateRule() *ModerateRule {
	return &ModerateRule{}
}

// Evaluate 评估中度规则，未命中返回 nil
func (r *ModerateRule) Evaluate(recent []models.MoodEntry, timestampMillis int64) *models.CrisisAlert {
	latest := recent[0]

	if latest.Mood > 5 || len(latest.WarningSignsPresent) == 0 {
		return nil
	}

	alert := newCrisisAlert(
		models.AlertLevelModerate,
		[]string{"Low mood with warning signs present"},
		[]string{
			"Review your coping strategies",
			"Consider contacting a support person",
			"Use grounding techniques",
		},
		timestampMillis,
	)
	return &alert
}
