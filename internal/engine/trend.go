package engine

import (
	"safeplan-engine/internal/models"
)

// trendThreshold 趋势判定阈值（严格不等式，±0.5 恰好视为 stable）
const trendThreshold = 0.5

// meanMood 计算心情均值
func meanMood(entries []models.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, entry := range entries {
		sum += entry.Mood
	}
	return float64(sum) / float64(len(entries))
}

// calculateTrend 计算心情趋势
// 记录按最新在前排列：recent = 前3条，older = 第4-6条
// older 为空时视为无信号（olderAvg = recentAvg，结果必然 stable）
func calculateTrend(entries []models.MoodEntry) models.Trend {
	if len(entries) < 3 {
		return models.TrendStable
	}

	recent := entries[:3]
	end := 6
	if end > len(entries) {
		end = len(entries)
	}
	older := entries[3:end]

	recentAvg := meanMood(recent)
	olderAvg := recentAvg
	if len(older) > 0 {
		olderAvg = meanMood(older)
	}

	difference := recentAvg - olderAvg
	switch {
	case difference > trendThreshold:
		return models.TrendImproving
	case difference < -trendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// escalateRisk 风险等级上调一档（low→moderate，其余→high）
func escalateRisk(level models.RiskLevel) models.RiskLevel {
	if level == models.RiskLow {
		return models.RiskModerate
	}
	return models.RiskHigh
}
