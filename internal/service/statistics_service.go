package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"go.uber.org/zap"
)

// Summary 时间窗内的投放统计
type Summary struct {
	FoodEvents         int     `json:"foodEvents"`
	WaterEvents        int     `json:"waterEvents"`
	TotalFoodDispensed float64 `json:"totalFoodDispensed"`
}

// HeatmapCell 7×24 活动热力图的一个格子
type HeatmapCell struct {
	Day   int `json:"day"`   // 0=周日 ... 6=周六
	Hour  int `json:"hour"`  // 0-23
	Count int `json:"count"` // 窗口内带PIR活动的读数条数
}

// Statistics 统计聚合结果
type Statistics struct {
	Daily   Summary       `json:"daily"`
	Weekly  Summary       `json:"weekly"`
	Heatmap []HeatmapCell `json:"heatmap"` // 168 格，行主序（先 day 后 hour）
}

// StatisticsService 统计聚合接口
type StatisticsService interface {
	// Compute 计算日/周统计与活动热力图
	// deviceID 为空表示跨设备（scope=all）
	Compute(ctx context.Context, deviceID string) (*Statistics, error)
}

// statisticsService 实现
type statisticsService struct {
	eventsRepo   repository.EventsRepository
	readingsRepo repository.ReadingsRepository
	location     *time.Location // 统计用本地时区
	logger       *zap.Logger
	now          func() time.Time // 测试注入
}

// NewStatisticsService 创建 StatisticsService 实例
func NewStatisticsService(eventsRepo repository.EventsRepository, readingsRepo repository.ReadingsRepository, location *time.Location, logger *zap.Logger) StatisticsService {
	if location == nil {
		location = time.Local
	}
	return &statisticsService{
		eventsRepo:   eventsRepo,
		readingsRepo: readingsRepo,
		location:     location,
		logger:       logger,
		now:          time.Now,
	}
}

// Compute 计算日/周统计与活动热力图
func (s *statisticsService) Compute(ctx context.Context, deviceID string) (*Statistics, error) {
	now := s.now().In(s.location)

	// 1. 按本地日历确定时间窗
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	weekStart := dayStart.AddDate(0, 0, -7)

	// 2. 周窗口事件（日窗口是它的子集，查一次就够）
	weeklyEvents, err := s.eventsRepo.ListEventsSince(ctx, weekStart, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dispense events: %w", err)
	}

	// 3. 周窗口内带PIR活动信号的读数
	motionReadings, err := s.readingsRepo.ListMotionReadingsSince(ctx, weekStart, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load motion readings: %w", err)
	}

	stats := &Statistics{
		Weekly:  summarize(weeklyEvents, weekStart),
		Daily:   summarize(weeklyEvents, dayStart),
		Heatmap: buildHeatmap(motionReadings, s.location),
	}

	s.logger.Debug("Statistics computed",
		zap.String("device_id", deviceID),
		zap.Int("weekly_events", len(weeklyEvents)),
		zap.Int("motion_readings", len(motionReadings)),
	)
	return stats, nil
}

// summarize 统计 since 之后的投放事件
func summarize(events []*domain.DispenseEvent, since time.Time) Summary {
	var summary Summary
	for _, event := range events {
		if event.CreatedAt.Before(since) {
			continue
		}
		switch event.EventType {
		case domain.EventTypeFood:
			summary.FoodEvents++
			if event.AmountDispensed.Valid {
				summary.TotalFoodDispensed += event.AmountDispensed.Float64
			}
		case domain.EventTypeWater:
			summary.WaterEvents++
		}
	}
	return summary
}

// buildHeatmap 按读数的本地日历时间分桶（day 0=周日）
// 一条读数无论触发几个PIR都只计一次；168 格全量输出，行主序
func buildHeatmap(readings []*domain.SensorReading, location *time.Location) []HeatmapCell {
	var counts [7][24]int
	for _, reading := range readings {
		if !reading.HasMotion() {
			continue
		}
		local := reading.CreatedAt.In(location)
		counts[int(local.Weekday())][local.Hour()]++
	}

	cells := make([]HeatmapCell, 0, 7*24)
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			cells = append(cells, HeatmapCell{Day: day, Hour: hour, Count: counts[day][hour]})
		}
	}
	return cells
}
