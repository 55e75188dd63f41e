package engine

import (
	"safeplan-engine/internal/models"
)

// SevereRule 重度模式：最新心情 <= 3，或近7条均值 <= 4 且最新 <= 4
type SevereRule struct{}

// NewSevereRule 创建重度规则
func NewSevereRule() *SevereRule {
	return &SevereRule{}
}

// Evaluate 评估重度规则，未命中返回 nil
// recent 为最近7条记录（最新在前），至少1条
func (r *SevereRule) Evaluate(recent []models.MoodEntry, timestampMillis int64) *models.CrisisAlert {
	latest := recent[0]
	averageMood := meanMood(recent)

	if latest.Mood > 3 && !(averageMood <= 4 && latest.Mood <= 4) {
		return nil
	}

	alert := newCrisisAlert(
		models.AlertLevelSevere,
		[]string{"Very low mood detected"},
		[]string{
			"Contact emergency services or a crisis hotline immediately",
			"Reach out to your support contacts",
			"Go to a safe place",
		},
		timestampMillis,
	)
	return &alert
}
