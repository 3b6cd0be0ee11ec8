package httpapi

import (
	"bytes"
	"testing"

	"github.com/danishayman/cpc357-project/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleStatistics() *service.Statistics {
	cells := make([]service.HeatmapCell, 0, 168)
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			cells = append(cells, service.HeatmapCell{Day: day, Hour: hour})
		}
	}
	cells[3*24+14].Count = 5 // 周三 14 点

	return &service.Statistics{
		Daily:   service.Summary{FoodEvents: 2, WaterEvents: 1, TotalFoodDispensed: 60},
		Weekly:  service.Summary{FoodEvents: 9, WaterEvents: 4, TotalFoodDispensed: 270},
		Heatmap: cells,
	}
}

func TestGenerateStatisticsExport(t *testing.T) {
	data, err := GenerateStatisticsExport(sampleStatistics())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "Summary")
	assert.Contains(t, f.GetSheetList(), "Activity Heatmap")

	// Summary 行
	window, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Today", window)
	foodEvents, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "9", foodEvents)

	// 热力图：周三行（第 5 行）14 点列（P 列）
	count, err := f.GetCellValue("Activity Heatmap", "P5")
	require.NoError(t, err)
	assert.Equal(t, "5", count)

	label, err := f.GetCellValue("Activity Heatmap", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Wednesday", label)
}
