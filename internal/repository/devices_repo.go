package repository

import (
	"context"

	"github.com/danishayman/cpc357-project/internal/domain"
)

// DevicesRepository 设备仓库接口
type DevicesRepository interface {
	// ListDevices 按名称排序返回全部设备（带在线状态）
	ListDevices(ctx context.Context) ([]*domain.DeviceWithStatus, error)

	// UpdateDevice 更新设备展示信息（名称/位置/坐标）
	UpdateDevice(ctx context.Context, req UpdateDeviceRequest) (*domain.Device, error)

	// EnsureDevice 设备首次上报时补建设备行（已存在则不动）
	EnsureDevice(ctx context.Context, deviceID string) error

	// GetStatus 获取设备在线状态
	GetStatus(ctx context.Context, deviceID string) (*domain.DeviceStatus, error)

	// UpsertStatus 更新设备在线状态（每设备只保留一行）
	UpsertStatus(ctx context.Context, status *domain.DeviceStatus) error
}

// UpdateDeviceRequest 设备更新请求
type UpdateDeviceRequest struct {
	DeviceID     string
	Name         string
	LocationName *string
	Latitude     *float64
	Longitude    *float64
}
