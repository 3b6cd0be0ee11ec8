package httpapi

import (
	"bytes"
	"fmt"

	"github.com/danishayman/cpc357-project/internal/service"

	"github.com/xuri/excelize/v2"
)

// StatisticsSummaryHeader 统计摘要表头
var StatisticsSummaryHeader = []string{
	"Window",
	"Food Events",
	"Water Events",
	"Total Food Dispensed (g)",
}

var heatmapDayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// GenerateStatisticsExport 生成统计导出 Excel 文件
// 两个工作表：Summary（日/周摘要）和 Activity Heatmap（7×24 热力图）
func GenerateStatisticsExport(stats *service.Statistics) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	summarySheet := "Summary"
	index, err := f.NewSheet(summarySheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
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
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// Summary 表头
	for col, header := range StatisticsSummaryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(summarySheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(summarySheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "D", 24); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	// Summary 数据行
	rows := []struct {
		window  string
		summary service.Summary
	}{
		{"Today", stats.Daily},
		{"Last 7 days", stats.Weekly},
	}
	for i, row := range rows {
		rowNum := i + 2
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", rowNum), &[]any{
			row.window,
			row.summary.FoodEvents,
			row.summary.WaterEvents,
			row.summary.TotalFoodDispensed,
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	// Heatmap 工作表：行=星期，列=小时
	heatmapSheet := "Activity Heatmap"
	if _, err := f.NewSheet(heatmapSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 第一行：小时表头
	if err := f.SetCellValue(heatmapSheet, "A1", "Day / Hour"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set heatmap header: %w", err)
	}
	for hour := 0; hour < 24; hour++ {
		cell, err := excelize.CoordinatesToCellName(hour+2, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(heatmapSheet, cell, fmt.Sprintf("%02d:00", hour)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set heatmap header: %w", err)
		}
		if err := f.SetCellStyle(heatmapSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 热力图格子（行主序：day 0-6 × hour 0-23）
	for _, cell := range stats.Heatmap {
		name, err := excelize.CoordinatesToCellName(cell.Hour+2, cell.Day+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(heatmapSheet, name, cell.Count); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write heatmap cell: %w", err)
		}
	}
	for day := 0; day < 7; day++ {
		cell := fmt.Sprintf("A%d", day+2)
		if err := f.SetCellValue(heatmapSheet, cell, heatmapDayNames[day]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write heatmap day label: %w", err)
		}
		if err := f.SetCellStyle(heatmapSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(heatmapSheet, "A", "A", 14); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
