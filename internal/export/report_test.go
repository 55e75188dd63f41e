package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"safeplan-engine/internal/models"
)

func TestGenerateMoodReport(t *testing.T) {
	entries := []models.MoodEntry{
		{
			EntryID:              "e-2",
			Date:                 "2025-06-11",
			Mood:                 4,
			Notes:                "rough day",
			WarningSignsPresent:  []string{"isolation", "poor sleep"},
			CopingStrategiesUsed: []string{"breathing"},
			Timestamp:            1749628800000,
		},
		{
			EntryID:              "e-1",
			Date:                 "2025-06-10",
			Mood:                 7,
			WarningSignsPresent:  []string{},
			CopingStrategiesUsed: []string{},
			Timestamp:            1749542400000,
		},
	}
	alerts := []models.CrisisAlert{
		{
			AlertID:            "a-1",
			Level:              models.AlertLevelModerate,
			Triggers:           []string{"Low mood with warning signs present"},
			RecommendedActions: []string{"Review your coping strategies", "Consider reaching out to a support contact"},
			Timestamp:          1749628800000,
		},
	}

	data, err := GenerateMoodReport(entries, alerts)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	// 默认 Sheet1 已删除，只保留两个业务工作表
	sheets := f.GetSheetList()
	assert.ElementsMatch(t, []string{"Mood History", "Crisis Alerts"}, sheets)

	rows, err := f.GetRows("Mood History")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, MoodHistoryHeader, rows[0])
	assert.Equal(t, "2025-06-11", rows[1][0])
	assert.Equal(t, "4", rows[1][1])
	assert.Equal(t, "isolation, poor sleep", rows[1][3])
	assert.Equal(t, "2025-06-10", rows[2][0])

	alertRows, err := f.GetRows("Crisis Alerts")
	require.NoError(t, err)
	require.Len(t, alertRows, 2)
	assert.Equal(t, "moderate", alertRows[1][0])
	assert.Equal(t, "Low mood with warning signs present", alertRows[1][1])
	assert.Contains(t, alertRows[1][2], "Review your coping strategies")
}

func TestGenerateMoodReport_Empty(t *testing.T) {
	data, err := GenerateMoodReport(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Mood History")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, MoodHistoryHeader, rows[0])
}
