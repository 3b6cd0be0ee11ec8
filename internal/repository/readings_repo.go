package repository

import (
	"context"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
)

// NewSensorReading 传感器读数写入参数（id/created_at 由仓库生成）
type NewSensorReading struct {
	DeviceID          string
	FoodWeight        *float64
	WaterLevelOK      *bool
	RainValue         *float64
	IsRaining         *bool
	FoodPIRTriggered  bool
	WaterPIRTriggered bool
}

// ReadingsRepository 传感器读数仓库接口（只追加）
type ReadingsRepository interface {
	// InsertReading 追加一条读数
	InsertReading(ctx context.Context, reading NewSensorReading) (*domain.SensorReading, error)

	// LatestReading 某设备最新一条读数，没有则返回 nil
	LatestReading(ctx context.Context, deviceID string) (*domain.SensorReading, error)

	// ListReadingsSince 时间窗内的读数，按时间正序
	// deviceID 为空表示跨设备（scope=all）
	ListReadingsSince(ctx context.Context, since time.Time, deviceID string) ([]*domain.SensorReading, error)

	// ListMotionReadingsSince 时间窗内带PIR活动信号的读数（热力图数据源）
	// deviceID 为空表示跨设备（scope=all）
	ListMotionReadingsSince(ctx context.Context, since time.Time, deviceID string) ([]*domain.SensorReading, error)
}
