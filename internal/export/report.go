package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"safeplan-engine/internal/models"
)

// MoodHistoryHeader 心情记录导出表头
var MoodHistoryHeader = []string{
	"Date",
	"Mood (1-10)",
	"Notes",
	"Warning Signs",
	"Coping Strategies",
	"Recorded At",
}

// CrisisAlertHeader 危机警报导出表头
var CrisisAlertHeader = []string{
	"Level",
	"Triggers",
	"Recommended Actions",
	"Created At",
}

const (
	moodSheetName  = "Mood History"
	alertSheetName = "Crisis Alerts"
)

// GenerateMoodReport 生成心情报告 Excel 文件
// 包含两个工作表：心情记录（最新在前）和危机警报
func GenerateMoodReport(entries []models.MoodEntry, alerts []models.CrisisAlert) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	index, err := f.NewSheet(moodSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(alertSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	if err := writeHeader(f, moodSheetName, MoodHistoryHeader, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeHeader(f, alertSheetName, CrisisAlertHeader, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	// 写入心情记录
	for rowIdx, entry := range entries {
		row := rowIdx + 2 // 从第2行开始（第1行是表头）
		values := []any{
			entry.Date,
			entry.Mood,
			entry.Notes,
			strings.Join(entry.WarningSignsPresent, ", "),
			strings.Join(entry.CopingStrategiesUsed, ", "),
			formatMillis(entry.Timestamp),
		}
		if err := writeRow(f, moodSheetName, row, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	// 写入危机警报
	for rowIdx, alert := range alerts {
		row := rowIdx + 2
		values := []any{
			string(alert.Level),
			strings.Join(alert.Triggers, "; "),
			strings.Join(alert.RecommendedActions, "; "),
			formatMillis(alert.Timestamp),
		}
		if err := writeRow(f, alertSheetName, row, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	// 冻结表头
	for _, sheet := range []string{moodSheetName, alertSheetName} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			Split:       false,
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to freeze panes: %w", err)
		}
	}

	// Write to bytes buffer
	// Note: File must remain open during Write operation
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}

// newHeaderStyle 表头样式
func newHeaderStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return style, nil
}

// writeHeader 写入表头并设置列宽
func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, 24); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

// writeRow 写入一行数据
func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell value %s: %w", cell, err)
		}
	}
	return nil
}

// formatMillis 毫秒时间戳格式化为可读时间
func formatMillis(millis int64) string {
	if millis == 0 {
		return ""
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04:05")
}
