package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"go.uber.org/zap"
)

// 仪表盘总览窗口
const (
	recentEventsLimit    = 10
	sensorHistoryWindow  = 24 * time.Hour
)

// TelemetryOverview 仪表盘总览数据
type TelemetryOverview struct {
	Latest       *domain.SensorReading   // 最新读数，可为 nil
	Status       *domain.DeviceStatus    // 设备在线状态，可为 nil
	RecentEvents []*domain.DispenseEvent // 最近投放事件（倒序）
	History      []*domain.SensorReading // 24小时读数（正序）
}

// TelemetryService 遥测查询接口
type TelemetryService interface {
	// Overview 仪表盘总览：最新读数 + 设备状态 + 最近事件 + 24小时历史
	// deviceID 为空表示跨设备（scope=all，此时不带设备状态）
	Overview(ctx context.Context, deviceID string) (*TelemetryOverview, error)
}

// telemetryService 实现
type telemetryService struct {
	devicesRepo  repository.DevicesRepository
	readingsRepo repository.ReadingsRepository
	eventsRepo   repository.EventsRepository
	logger       *zap.Logger
}

// NewTelemetryService 创建 TelemetryService 实例
func NewTelemetryService(devicesRepo repository.DevicesRepository, readingsRepo repository.ReadingsRepository, eventsRepo repository.EventsRepository, logger *zap.Logger) TelemetryService {
	return &telemetryService{
		devicesRepo:  devicesRepo,
		readingsRepo: readingsRepo,
		eventsRepo:   eventsRepo,
		logger:       logger,
	}
}

// Overview 仪表盘总览
func (s *telemetryService) Overview(ctx context.Context, deviceID string) (*TelemetryOverview, error) {
	overview := &TelemetryOverview{}

	// 1. 最新读数
	latest, err := s.readingsRepo.LatestReading(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest reading: %w", err)
	}
	overview.Latest = latest

	// 2. 设备状态（仅单设备视图）
	if deviceID != "" {
		status, err := s.devicesRepo.GetStatus(ctx, deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load device status: %w", err)
		}
		overview.Status = status
	}

	// 3. 最近投放事件
	events, err := s.eventsRepo.ListRecentEvents(ctx, recentEventsLimit, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}
	overview.RecentEvents = events

	// 4. 24小时读数历史（趋势图数据源）
	since := time.Now().Add(-sensorHistoryWindow)
	history, err := s.readingsRepo.ListReadingsSince(ctx, since, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sensor history: %w", err)
	}
	overview.History = history

	s.logger.Debug("Telemetry overview assembled",
		zap.String("device_id", deviceID),
		zap.Int("history_points", len(history)),
	)
	return overview, nil
}
