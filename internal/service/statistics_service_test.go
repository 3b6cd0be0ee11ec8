package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEventsRepo scripted EventsRepository
type fakeEventsRepo struct {
	events       []*domain.DispenseEvent
	lastSince    time.Time
	lastDeviceID string
}

func (f *fakeEventsRepo) InsertEvent(_ context.Context, event repository.NewDispenseEvent) (*domain.DispenseEvent, error) {
	e := &domain.DispenseEvent{
		ID:            "evt-new",
		DeviceID:      event.DeviceID,
		EventType:     event.EventType,
		TriggerSource: event.TriggerSource,
		CreatedAt:     time.Now(),
	}
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeEventsRepo) ListRecentEvents(_ context.Context, limit int, _ string) ([]*domain.DispenseEvent, error) {
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeEventsRepo) ListEventsSince(_ context.Context, since time.Time, deviceID string) ([]*domain.DispenseEvent, error) {
	f.lastSince = since
	f.lastDeviceID = deviceID
	var result []*domain.DispenseEvent
	for _, e := range f.events {
		if !e.CreatedAt.Before(since) {
			result = append(result, e)
		}
	}
	return result, nil
}

// fakeReadingsRepo scripted ReadingsRepository
type fakeReadingsRepo struct {
	readings     []*domain.SensorReading
	lastDeviceID string
}

func (f *fakeReadingsRepo) InsertReading(_ context.Context, reading repository.NewSensorReading) (*domain.SensorReading, error) {
	r := &domain.SensorReading{ID: "rd-new", DeviceID: reading.DeviceID, CreatedAt: time.Now()}
	f.readings = append(f.readings, r)
	return r, nil
}

func (f *fakeReadingsRepo) LatestReading(_ context.Context, _ string) (*domain.SensorReading, error) {
	if len(f.readings) == 0 {
		return nil, nil
	}
	return f.readings[len(f.readings)-1], nil
}

func (f *fakeReadingsRepo) ListReadingsSince(_ context.Context, since time.Time, _ string) ([]*domain.SensorReading, error) {
	var result []*domain.SensorReading
	for _, r := range f.readings {
		if !r.CreatedAt.Before(since) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeReadingsRepo) ListMotionReadingsSince(_ context.Context, since time.Time, deviceID string) ([]*domain.SensorReading, error) {
	f.lastDeviceID = deviceID
	var result []*domain.SensorReading
	for _, r := range f.readings {
		if r.HasMotion() && !r.CreatedAt.Before(since) {
			result = append(result, r)
		}
	}
	return result, nil
}

func foodEvent(createdAt time.Time, amount float64) *domain.DispenseEvent {
	return &domain.DispenseEvent{
		EventType:       domain.EventTypeFood,
		AmountDispensed: sql.NullFloat64{Float64: amount, Valid: true},
		CreatedAt:       createdAt,
	}
}

func waterEvent(createdAt time.Time) *domain.DispenseEvent {
	return &domain.DispenseEvent{
		EventType: domain.EventTypeWater,
		CreatedAt: createdAt,
	}
}

func motionReading(createdAt time.Time) *domain.SensorReading {
	return &domain.SensorReading{FoodPIRTriggered: true, CreatedAt: createdAt}
}

func newStatsService(events *fakeEventsRepo, readings *fakeReadingsRepo, loc *time.Location, now time.Time) StatisticsService {
	svc := NewStatisticsService(events, readings, loc, zap.NewNop()).(*statisticsService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCompute_EmptyDataset(t *testing.T) {
	svc := newStatsService(&fakeEventsRepo{}, &fakeReadingsRepo{}, time.UTC, time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC))

	stats, err := svc.Compute(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, Summary{}, stats.Daily)
	assert.Equal(t, Summary{}, stats.Weekly)
	require.Len(t, stats.Heatmap, 168)
	for _, cell := range stats.Heatmap {
		assert.Zero(t, cell.Count)
	}
}

func TestCompute_DailyAndWeeklyWindows(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 11, 5, 12, 0, 0, 0, loc)

	events := &fakeEventsRepo{events: []*domain.DispenseEvent{
		foodEvent(now.Add(-2*time.Hour), 30),                 // 今天
		foodEvent(now.Add(-30*time.Hour), 20),                // 昨天（只进周窗口）
		waterEvent(now.Add(-48 * time.Hour)),                 // 前天
		foodEvent(now.Add(-10*24*time.Hour), 50),             // 窗口外
		{EventType: domain.EventTypeFood, CreatedAt: now.Add(-3 * time.Hour)}, // null amount 按 0 计
	}}
	svc := newStatsService(events, &fakeReadingsRepo{}, loc, now)

	stats, err := svc.Compute(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, Summary{FoodEvents: 2, WaterEvents: 0, TotalFoodDispensed: 30}, stats.Daily)
	assert.Equal(t, Summary{FoodEvents: 3, WaterEvents: 1, TotalFoodDispensed: 50}, stats.Weekly)

	// 周窗口起点 = 本地今日零点 - 7 天
	assert.Equal(t, time.Date(2025, 10, 29, 0, 0, 0, 0, loc), events.lastSince)
}

func TestCompute_HeatmapRowMajorOrder(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 11, 5, 12, 0, 0, 0, loc)

	// 周三（weekday 3）14 点的两条活动读数
	readings := &fakeReadingsRepo{readings: []*domain.SensorReading{
		motionReading(time.Date(2025, 11, 5, 14, 10, 0, 0, loc)),
		motionReading(time.Date(2025, 11, 5, 14, 45, 0, 0, loc)),
		// 双PIR同时触发仍只计一次
		{FoodPIRTriggered: true, WaterPIRTriggered: true, CreatedAt: time.Date(2025, 11, 5, 14, 50, 0, 0, loc)},
	}}
	svc := newStatsService(&fakeEventsRepo{}, readings, loc, now)

	stats, err := svc.Compute(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, stats.Heatmap, 168)

	// 行主序：index = day*24 + hour
	cell := stats.Heatmap[3*24+14]
	assert.Equal(t, 3, cell.Day)
	assert.Equal(t, 14, cell.Hour)
	assert.Equal(t, 3, cell.Count)

	total := 0
	for _, c := range stats.Heatmap {
		total += c.Count
	}
	assert.Equal(t, 3, total)
}

func TestCompute_HeatmapAcrossDSTBoundary(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 美东 2025-11-02 02:00 结束夏令时；窗口横跨该边界
	now := time.Date(2025, 11, 5, 12, 0, 0, 0, loc)

	readings := &fakeReadingsRepo{readings: []*domain.SensorReading{
		// 边界前：UTC-4，18:30 UTC = 周六 14:30 EDT
		motionReading(time.Date(2025, 11, 1, 18, 30, 0, 0, time.UTC)),
		// 边界后：UTC-5，19:30 UTC = 周一 14:30 EST
		motionReading(time.Date(2025, 11, 3, 19, 30, 0, 0, time.UTC)),
	}}
	svc := newStatsService(&fakeEventsRepo{}, readings, loc, now)

	stats, err := svc.Compute(context.Background(), "")
	require.NoError(t, err)

	// 两条读数 UTC 偏移不同，但本地时间都落在 14 点
	saturday := stats.Heatmap[6*24+14]
	monday := stats.Heatmap[1*24+14]
	assert.Equal(t, 1, saturday.Count)
	assert.Equal(t, 1, monday.Count)
}

func TestCompute_ScopeFilterPassedThrough(t *testing.T) {
	events := &fakeEventsRepo{}
	readings := &fakeReadingsRepo{}
	svc := newStatsService(events, readings, time.UTC, time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC))

	_, err := svc.Compute(context.Background(), "esp32-feeder-01")
	require.NoError(t, err)
	assert.Equal(t, "esp32-feeder-01", events.lastDeviceID)
	assert.Equal(t, "esp32-feeder-01", readings.lastDeviceID)

	_, err = svc.Compute(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, events.lastDeviceID)
	assert.Empty(t, readings.lastDeviceID)
}
