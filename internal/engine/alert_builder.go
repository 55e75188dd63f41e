package engine

import (
	"github.com/google/uuid"

	"safeplan-engine/internal/models"
)

// newCrisisAlert 构建危机警报
func newCrisisAlert(level models.AlertLevel, triggers []string, actions []string, timestampMillis int64) models.CrisisAlert {
	return models.CrisisAlert{
		AlertID:                   uuid.New().String(),
		Level:                     level,
		Triggers:                  triggers,
		RecommendedActions:        actions,
		EmergencyContactsNotified: false,
		Timestamp:                 timestampMillis,
	}
}
